package announce

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeHistory struct {
	records []BroadcastRecord
	err     error
	limit   int
}

func (h *fakeHistory) RecentBroadcasts(ctx context.Context, limit int) ([]BroadcastRecord, error) {
	h.limit = limit
	return h.records, h.err
}

func newTestCommands(t *testing.T) (*Commands, *Store) {
	t.Helper()
	s := NewStore(NewFileGateway(t.TempDir(), zerolog.Nop()))
	sched := NewScheduler(s, zerolog.Nop(), WithClock(fixedClock(at(12, 0))), WithInterval(time.Hour))
	return NewCommands(s, sched, nil, zerolog.Nop()), s
}

func TestAddListRemoveRoundTrip(t *testing.T) {
	cmds, s := newTestCommands(t)

	if got := cmds.AddMessage("morning", "Good morning!"); got != `Ok, got it! I'll say "Good morning!" during my morning announcements.` {
		t.Fatalf("AddMessage = %q", got)
	}
	entries := s.List(Morning)
	if len(entries) != 1 || entries[0] != (Entry{Index: 0, Text: "Good morning!"}) {
		t.Fatalf("List = %+v", entries)
	}
	if got := cmds.ListAnnouncements("morning"); got != "Morning Announcements:\n    Message at index 0 is Good morning!" {
		t.Fatalf("ListAnnouncements = %q", got)
	}

	if got := cmds.RemoveMessage("morning", "0"); got != `Index 0 of morning announcements, "Good morning!" removed.` {
		t.Fatalf("RemoveMessage = %q", got)
	}
	if n := s.Len(Morning); n != 0 {
		t.Fatalf("Len = %d", n)
	}
	if got := cmds.ListAnnouncements("morning"); got != "There are no morning announcements added for me to say" {
		t.Fatalf("ListAnnouncements = %q", got)
	}
}

func TestInvalidCategoryReplies(t *testing.T) {
	cmds, s := newTestCommands(t)
	for _, name := range []string{"evening", "Morning", "CURFEW"} {
		for _, reply := range []string{
			cmds.AddMessage(name, "text"),
			cmds.RemoveMessage(name, "0"),
			cmds.MakeAnnouncement(name),
			cmds.ListAnnouncements(name),
		} {
			if reply != replyInvalidCategory {
				t.Fatalf("reply for %q = %q", name, reply)
			}
		}
	}
	if s.Len(Morning)+s.Len(Curfew) != 0 {
		t.Fatal("invalid category mutated state")
	}
}

func TestRemoveMessageReplies(t *testing.T) {
	cmds, s := newTestCommands(t)
	s.Add(Curfew, "a")
	s.Add(Curfew, "b")

	tests := []struct {
		category string
		index    string
		want     string
	}{
		{category: "curfew", index: "abc", want: replyNotAnInteger},
		{category: "curfew", index: "-1", want: replyNotAnInteger},
		{category: "curfew", index: "1.5", want: replyNotAnInteger},
		{category: "curfew", index: "", want: replyNotAnInteger},
		{category: "evening", index: "x", want: replyNotAnInteger},
		{category: "curfew", index: "2", want: "Index 2 out of bounds! Must be between 0 and 2"},
		{category: "morning", index: "0", want: "Index 0 out of bounds! Must be between 0 and 0"},
		{category: "curfew", index: " 1 ", want: `Index 1 of curfew announcements, "b" removed.`},
	}
	for _, tt := range tests {
		if got := cmds.RemoveMessage(tt.category, tt.index); got != tt.want {
			t.Fatalf("RemoveMessage(%q, %q) = %q, want %q", tt.category, tt.index, got, tt.want)
		}
	}
	if got := texts(s.List(Curfew)); len(got) != 1 || got[0] != "a" {
		t.Fatalf("curfew = %v", got)
	}
}

func TestMakeAnnouncement(t *testing.T) {
	cmds, s := newTestCommands(t)
	for i := 0; i < 3; i++ {
		if got := cmds.MakeAnnouncement("curfew"); got != DefaultFallback {
			t.Fatalf("MakeAnnouncement on empty = %q", got)
		}
	}
	s.Add(Curfew, "Bed time")
	if got := cmds.MakeAnnouncement("curfew"); got != "Bed time" {
		t.Fatalf("MakeAnnouncement = %q", got)
	}
}

func TestListAnnouncementsBoth(t *testing.T) {
	cmds, s := newTestCommands(t)
	if got := cmds.ListAnnouncements(""); got != replyNoAnnouncements {
		t.Fatalf("empty listing = %q", got)
	}

	s.Add(Morning, "rise")
	s.Add(Curfew, "sleep")
	s.Add(Curfew, "really")
	want := strings.Join([]string{
		"Morning Announcements:",
		"    Message at index 0 is rise",
		"Curfew Announcements:",
		"    Message at index 0 is sleep",
		"    Message at index 1 is really",
	}, "\n")
	if got := cmds.ListAnnouncements(""); got != want {
		t.Fatalf("listing =\n%s\nwant\n%s", got, want)
	}
	if got := cmds.ListAnnouncements("  "); got != want {
		t.Fatalf("blank category listing = %q", got)
	}
}

func TestBeginAnnouncements(t *testing.T) {
	cmds, _ := newTestCommands(t)
	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}

	if got := cmds.BeginAnnouncements(ctx, sink); got != replyLoopStarted {
		t.Fatalf("first begin = %q", got)
	}
	if got := cmds.BeginAnnouncements(ctx, sink); got != replyLoopRunning {
		t.Fatalf("second begin = %q", got)
	}
	cancel()
	cmds.scheduler.Wait()
}

func TestHistory(t *testing.T) {
	cmds, _ := newTestCommands(t)
	if got := cmds.History(context.Background(), 5); got != replyNoHistory {
		t.Fatalf("History without reader = %q", got)
	}

	h := &fakeHistory{records: []BroadcastRecord{
		{Category: Curfew, Text: "sleep", SentAt: time.Date(2024, time.January, 16, 12, 0, 0, 0, time.UTC)},
	}}
	cmds.history = h
	if got := cmds.History(context.Background(), 5); got != "Recent announcements:\n    2024-01-16 23:00 curfew: sleep" {
		t.Fatalf("History = %q", got)
	}
	if h.limit != 5 {
		t.Fatalf("limit = %d", h.limit)
	}

	h.err = errors.New("db down")
	if got := cmds.History(context.Background(), 5); !strings.Contains(got, "couldn't read") {
		t.Fatalf("History on error = %q", got)
	}
}
