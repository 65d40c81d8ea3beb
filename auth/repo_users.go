package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var UpdateUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = ?
WHERE
	"usr"."id" = ?
RETURNING *;`

// The notes cascade runs here because deleting a user is the repository's
// responsibility, including the records the user owns.
var DeleteUserNotesSQL = `DELETE FROM "notes" WHERE "user_id" = ?;`

var DeleteUserSQL = `DELETE FROM "users" WHERE "id" = ? RETURNING "id";`

type Users interface {
	repository.Repository[*User]

	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	// FindByID is the uuid-typed lookup; the embedded repository keeps its
	// own string-keyed GetByID.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	Remove(ctx context.Context, id uuid.UUID) error
	RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where(`?TableAlias."username" = ?`, strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.FindByIDTx(ctx, a.db, id)
}

func (a *users) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where(`?TableAlias."id" = ?`, id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.UpdatePasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, UpdateUserPasswordSQL, passwordHash, time.Now(), id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) Remove(ctx context.Context, id uuid.UUID) error {
	return a.RemoveTx(ctx, a.db, id)
}

func (a *users) RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if _, err := tx.NewRaw(DeleteUserNotesSQL, id.String()).Exec(ctx); err != nil {
		return err
	}

	res, err := a.Repository.RawTx(ctx, tx, DeleteUserSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?);
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Username = strings.TrimSpace(record.Username)
}

// IsUniqueViolation reports whether err is the storage layer rejecting a
// duplicate key, e.g. two concurrent signups racing past the existence
// check. Covers the sqlite and postgres message shapes.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
