package announce

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFallback is broadcast when the triggered category has no entries.
const DefaultFallback = "https://cdn.discordapp.com/attachments/1196650681717772298/1196793913294471183/lv_7250253436737080581_20240116232908.mp4?ex=65b8ec30&is=65a67730&hm=e45b3bc4b2851002e18c56c8ece3d779f44448fbd623601cf898c9132ed150dc&"

// DefaultInterval is how long the loop sleeps between two clock checks.
const DefaultInterval = 60 * time.Second

// Zone is the fixed UTC+11 offset every trigger is evaluated in. It does not
// follow daylight saving rules.
var Zone = time.FixedZone("UTC+11", 11*60*60)

// Trigger is the hour:minute in Zone at which a category is broadcast.
type Trigger struct {
	Category Category
	Hour     int
	Minute   int
}

// Triggers are checked in order; the first exact match wins.
var Triggers = []Trigger{
	{Category: Morning, Hour: 8, Minute: 45},
	{Category: Curfew, Hour: 23, Minute: 0},
}

// Sink posts scheduler output to the chat.
type Sink interface {
	Broadcast(ctx context.Context, text string) error
}

// Recorder keeps a history of what the scheduler sent.
type Recorder interface {
	RecordBroadcast(ctx context.Context, c Category, text string, at time.Time) error
}

// Scheduler runs the announcement loop. It starts at most once per value and
// has no stop command; cancelling the context passed to Start ends the loop.
type Scheduler struct {
	store    *Store
	log      zerolog.Logger
	now      func() time.Time
	interval time.Duration
	fallback string
	recorder Recorder

	running atomic.Bool
	wg      sync.WaitGroup
}

type SchedulerOption func(*Scheduler)

func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithFallback(text string) SchedulerOption {
	return func(s *Scheduler) {
		if text != "" {
			s.fallback = text
		}
	}
}

func WithRecorder(r Recorder) SchedulerOption {
	return func(s *Scheduler) { s.recorder = r }
}

func NewScheduler(store *Store, log zerolog.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:    store,
		log:      log.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
		interval: DefaultInterval,
		fallback: DefaultFallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fallback is the text used for an empty category.
func (s *Scheduler) Fallback() string {
	return s.fallback
}

// Running reports whether the loop has been started.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start spawns the loop and returns true, or returns false without spawning
// if it is already running.
func (s *Scheduler) Start(ctx context.Context, sink Sink) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, sink)
	}()
	s.log.Info().Dur("interval", s.interval).Msg("announcement loop started")
	return true
}

// Wait blocks until the loop has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, sink Sink) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		s.Tick(ctx, sink)

		timer.Reset(s.interval)
		select {
		case <-ctx.Done():
			s.log.Info().Msg("announcement loop stopped")
			return
		case <-timer.C:
		}
	}
}

// Due returns the category whose trigger matches t exactly, evaluated in Zone.
func Due(t time.Time) (Category, bool) {
	local := t.In(Zone)
	for _, tr := range Triggers {
		if local.Hour() == tr.Hour && local.Minute() == tr.Minute {
			return tr.Category, true
		}
	}
	return 0, false
}

// Tick runs a single iteration: if the clock sits on a trigger minute, one
// announcement is broadcast. It reports whether a broadcast was sent.
//
// A minute skipped by a late wakeup is not caught up.
func (s *Scheduler) Tick(ctx context.Context, sink Sink) bool {
	now := s.now()
	c, ok := Due(now)
	s.log.Debug().Time("now", now.In(Zone)).Bool("due", ok).Msg("tick")
	if !ok {
		return false
	}

	text, ok := s.store.PickRandom(c)
	if !ok {
		text = s.fallback
	}
	if err := sink.Broadcast(ctx, text); err != nil {
		s.log.Error().Err(err).Str("category", c.String()).Msg("failed to broadcast announcement")
		return false
	}
	s.log.Info().Str("category", c.String()).Msg("announcement sent")

	if s.recorder != nil {
		if err := s.recorder.RecordBroadcast(ctx, c, text, now); err != nil {
			s.log.Warn().Err(err).Msg("failed to record broadcast")
		}
	}
	return true
}
