package model

import (
	"time"

	"github.com/google/uuid"
)

// Project is the tenant-scoped container that owns log records and alert
// configuration. Ownership (the user) is managed by an external system; the
// backend only needs the two UUIDs.
type Project struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
