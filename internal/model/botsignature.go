package model

import "time"

// BotSignature is a known bot/crawler identity. Signatures are imported by an
// administrative process and read-only afterwards; the matcher caches a
// snapshot of them for the process lifetime.
type BotSignature struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Website   string    `db:"website" json:"website"`
	Pattern   string    `db:"pattern" json:"pattern"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
