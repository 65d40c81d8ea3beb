package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. The stored credential is always the bcrypt hash,
// never the plaintext, and it is never serialized.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Identity returns the auth identity for this record
func (u *User) Identity() Identity {
	return authIdentity{
		id:       u.ID.String(),
		username: u.Username,
	}
}

type authIdentity struct {
	id       string
	username string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

var _ Identity = authIdentity{}
