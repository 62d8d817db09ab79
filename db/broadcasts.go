package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jon4hz/announcement_bot/announce"
)

const timeLayout = "2006-01-02 15:04:05.000"

type Broadcast struct {
	ID       int64
	Category string
	Text     string
	ChatID   int64  `db:"chatid"`
	SentAt   string `db:"sentat"`
}

func (d *Database) RecordBroadcast(ctx context.Context, c announce.Category, text string, at time.Time) error {
	_, err := d.sql.ExecContext(ctx, "INSERT INTO broadcasts (category, text, chatid, sentat) VALUES (?, ?, ?, ?)",
		c.String(), text, d.chatID.Load(), at.UTC().Format(timeLayout))
	return err
}

func (d *Database) GetBroadcasts(ctx context.Context, limit int) ([]Broadcast, error) {
	var broadcasts []Broadcast
	err := d.sql.SelectContext(ctx, &broadcasts, "SELECT * FROM broadcasts ORDER BY sentat DESC, id DESC LIMIT ?", limit)
	return broadcasts, err
}

func (d *Database) RecentBroadcasts(ctx context.Context, limit int) ([]announce.BroadcastRecord, error) {
	broadcasts, err := d.GetBroadcasts(ctx, limit)
	if err != nil {
		return nil, err
	}
	records := make([]announce.BroadcastRecord, 0, len(broadcasts))
	for _, b := range broadcasts {
		c, err := announce.ParseCategory(b.Category)
		if err != nil {
			return nil, fmt.Errorf("broadcast %d: %w", b.ID, err)
		}
		sentAt, err := time.ParseInLocation(timeLayout, b.SentAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("broadcast %d: %w", b.ID, err)
		}
		records = append(records, announce.BroadcastRecord{Category: c, Text: b.Text, SentAt: sentAt})
	}
	return records, nil
}
