package notes

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Note is a user-owned note record
type Note struct {
	bun.BaseModel `bun:"table:notes,alias:note" json:"-"`

	ID      uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	UserID  uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Title   string    `bun:"title,notnull,unique" json:"title"`
	Content string    `bun:"content" json:"content"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
