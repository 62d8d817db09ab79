package announce

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	replyInvalidCategory = "I don't understand what time you want me to say that, speak properly next time."
	replyNotAnInteger    = "You did not give me an integer!"
	replyNoAnnouncements = "There are no announcements added for me to say"
	replyLoopStarted     = "loop should've started!"
	replyLoopRunning     = "loop already running!"
	replyNoHistory       = "I haven't sent any announcements yet"
)

// BroadcastRecord is one entry of the broadcast history.
type BroadcastRecord struct {
	Category Category
	Text     string
	SentAt   time.Time
}

// HistoryReader returns the most recent broadcasts, newest first.
type HistoryReader interface {
	RecentBroadcasts(ctx context.Context, limit int) ([]BroadcastRecord, error)
}

// Commands turns chat command arguments into replies. Permission checks are
// the caller's job.
type Commands struct {
	store     *Store
	scheduler *Scheduler
	history   HistoryReader
	log       zerolog.Logger
}

func NewCommands(store *Store, scheduler *Scheduler, history HistoryReader, log zerolog.Logger) *Commands {
	return &Commands{
		store:     store,
		scheduler: scheduler,
		history:   history,
		log:       log.With().Str("component", "commands").Logger(),
	}
}

func (c *Commands) AddMessage(categoryName, text string) string {
	cat, err := ParseCategory(categoryName)
	if err != nil {
		return replyInvalidCategory
	}
	i := c.store.Add(cat, text)
	c.log.Info().Str("category", cat.String()).Int("index", i).Msg("announcement added")
	return fmt.Sprintf("Ok, got it! I'll say \"%s\" during my %s announcements.", text, cat)
}

func (c *Commands) RemoveMessage(categoryName, indexText string) string {
	index, err := parseIndex(indexText)
	if err != nil {
		return replyNotAnInteger
	}
	cat, err := ParseCategory(categoryName)
	if err != nil {
		return replyInvalidCategory
	}

	removed, err := c.store.Remove(cat, index)
	var oob *OutOfBoundsError
	if errors.As(err, &oob) {
		return fmt.Sprintf("Index %d out of bounds! Must be between 0 and %d", oob.Given, oob.Max)
	}
	c.log.Info().Str("category", cat.String()).Int("index", index).Msg("announcement removed")
	return fmt.Sprintf("Index %d of %s announcements, \"%s\" removed.", index, cat, removed)
}

func (c *Commands) MakeAnnouncement(categoryName string) string {
	cat, err := ParseCategory(categoryName)
	if err != nil {
		return replyInvalidCategory
	}
	if text, ok := c.store.PickRandom(cat); ok {
		return text
	}
	return c.scheduler.Fallback()
}

// ListAnnouncements lists one category, or both when categoryName is empty.
func (c *Commands) ListAnnouncements(categoryName string) string {
	categoryName = strings.TrimSpace(categoryName)
	if categoryName == "" {
		return formatSections(c.store.ListAll())
	}
	cat, err := ParseCategory(categoryName)
	if err != nil {
		return replyInvalidCategory
	}
	entries := c.store.List(cat)
	if len(entries) == 0 {
		return fmt.Sprintf("There are no %s announcements added for me to say", cat)
	}
	var msg strings.Builder
	writeSection(&msg, cat, entries)
	return msg.String()
}

// BeginAnnouncements starts the scheduler loop posting to sink.
func (c *Commands) BeginAnnouncements(ctx context.Context, sink Sink) string {
	if c.scheduler.Start(ctx, sink) {
		return replyLoopStarted
	}
	return replyLoopRunning
}

func (c *Commands) History(ctx context.Context, limit int) string {
	if c.history == nil {
		return replyNoHistory
	}
	records, err := c.history.RecentBroadcasts(ctx, limit)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to read broadcast history")
		return "I couldn't read my broadcast history, try again later."
	}
	if len(records) == 0 {
		return replyNoHistory
	}
	var msg strings.Builder
	msg.WriteString("Recent announcements:")
	for _, r := range records {
		fmt.Fprintf(&msg, "\n    %s %s: %s", r.SentAt.In(Zone).Format("2006-01-02 15:04"), r.Category, r.Text)
	}
	return msg.String()
}

func parseIndex(s string) (int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 0)
	if err != nil || n > math.MaxInt {
		return 0, fmt.Errorf("%w: %q", ErrNotAnInteger, s)
	}
	return int(n), nil
}

func formatSections(sections []Section) string {
	empty := true
	for _, sec := range sections {
		if len(sec.Entries) > 0 {
			empty = false
		}
	}
	if empty {
		return replyNoAnnouncements
	}

	var msg strings.Builder
	for i, sec := range sections {
		if i > 0 {
			msg.WriteString("\n")
		}
		writeSection(&msg, sec.Category, sec.Entries)
	}
	return msg.String()
}

func writeSection(msg *strings.Builder, cat Category, entries []Entry) {
	msg.WriteString(cat.Title())
	msg.WriteString(" Announcements:")
	for _, e := range entries {
		fmt.Fprintf(msg, "\n    Message at index %d is %s", e.Index, e.Text)
	}
}
