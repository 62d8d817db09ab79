package db

import (
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

var schema = `
CREATE TABLE IF NOT EXISTS broadcasts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL,
	text TEXT NOT NULL,
	chatid INTEGER NOT NULL DEFAULT 0,
	sentat TEXT NOT NULL
);
`

type Database struct {
	sql    *sqlx.DB
	file   string
	chatID atomic.Int64
}

func New(file string) *Database {
	return &Database{
		file: file,
	}
}

// SetChatID tags every following broadcast record with chatID.
func (d *Database) SetChatID(chatID int64) {
	d.chatID.Store(chatID)
}

func (d *Database) Connect() error {
	db, err := sqlx.Open("sqlite", d.file)
	if err != nil {
		return err
	}
	d.sql = db
	if err := d.sql.Ping(); err != nil {
		return err
	}
	return d.createTable()
}

func (d *Database) Close() error {
	if d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func (d *Database) createTable() error {
	if _, err := d.sql.Exec(schema); err != nil {
		return err
	}
	return nil
}
