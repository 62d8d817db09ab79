package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jon4hz/announcement_bot/announce"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d := New(filepath.Join(t.TempDir(), "announcements.db"))
	if err := d.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestRecordAndReadBroadcasts(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, time.January, 16, 8, 45, 0, 0, announce.Zone)

	d.SetChatID(-100123)
	if err := d.RecordBroadcast(ctx, announce.Morning, "Good morning!", base); err != nil {
		t.Fatalf("RecordBroadcast: %v", err)
	}
	if err := d.RecordBroadcast(ctx, announce.Curfew, "Lights out", base.Add(14*time.Hour+15*time.Minute)); err != nil {
		t.Fatalf("RecordBroadcast: %v", err)
	}

	raw, err := d.GetBroadcasts(ctx, 10)
	if err != nil {
		t.Fatalf("GetBroadcasts: %v", err)
	}
	if len(raw) != 2 || raw[0].ChatID != -100123 || raw[0].Category != "curfew" {
		t.Fatalf("GetBroadcasts = %+v", raw)
	}

	records, err := d.RecentBroadcasts(ctx, 10)
	if err != nil {
		t.Fatalf("RecentBroadcasts: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Category != announce.Curfew || records[1].Category != announce.Morning {
		t.Fatalf("records not newest first: %+v", records)
	}
	if !records[1].SentAt.Equal(base) {
		t.Fatalf("SentAt = %v, want %v", records[1].SentAt, base)
	}
}

func TestRecentBroadcastsLimit(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 8, 45, 0, 0, announce.Zone)
	for i := 0; i < 5; i++ {
		if err := d.RecordBroadcast(ctx, announce.Morning, "day", start.AddDate(0, 0, i)); err != nil {
			t.Fatal(err)
		}
	}

	records, err := d.RecentBroadcasts(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if !records[0].SentAt.Equal(start.AddDate(0, 0, 4)) {
		t.Fatalf("newest = %v", records[0].SentAt)
	}
}

func TestConnectIsRepeatable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "announcements.db")
	for i := 0; i < 2; i++ {
		d := New(file)
		if err := d.Connect(); err != nil {
			t.Fatalf("Connect #%d: %v", i, err)
		}
		_ = d.Close()
	}
}
