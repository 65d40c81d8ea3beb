package notes

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Notes interface {
	repository.Repository[*Note]

	GetByTitle(ctx context.Context, title string) (*Note, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*Note, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Note, error)

	Add(ctx context.Context, note *Note) (*Note, error)
	AddTx(ctx context.Context, tx bun.IDB, note *Note) (*Note, error)

	Remove(ctx context.Context, id, userID uuid.UUID) error
}

type notes struct {
	repository.Repository[*Note]
	db *bun.DB
}

var _ Notes = (*notes)(nil)

func NewNotesRepository(db *bun.DB) Notes {
	repo := repository.NewRepository[*Note](db, repository.ModelHandlers[*Note]{
		NewRecord: func() *Note { return &Note{} },
		GetID: func(n *Note) uuid.UUID {
			if n == nil {
				return uuid.Nil
			}
			return n.ID
		},
		SetID: func(n *Note, id uuid.UUID) {
			if n != nil {
				n.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &notes{
		Repository: repo,
		db:         db,
	}
}

func (r *notes) GetByTitle(ctx context.Context, title string) (*Note, error) {
	record := &Note{}
	err := r.db.NewSelect().
		Model(record).
		Where(`?TableAlias."title" = ?`, strings.TrimSpace(title)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"title": title,
				})
		}
		return nil, err
	}

	return record, nil
}

func (r *notes) GetForUser(ctx context.Context, id, userID uuid.UUID) (*Note, error) {
	record := &Note{}
	err := r.db.NewSelect().
		Model(record).
		Where(`?TableAlias."id" = ?`, id).
		Where(`?TableAlias."user_id" = ?`, userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id":      id.String(),
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (r *notes) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Note, error) {
	records := []*Note{}
	err := r.db.NewSelect().
		Model(&records).
		Where(`?TableAlias."user_id" = ?`, userID).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *notes) Add(ctx context.Context, note *Note) (*Note, error) {
	return r.AddTx(ctx, r.db, note)
}

func (r *notes) AddTx(ctx context.Context, tx bun.IDB, note *Note) (*Note, error) {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	note.Title = strings.TrimSpace(note.Title)

	return r.Repository.CreateTx(ctx, tx, note)
}

func (r *notes) Remove(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Note)(nil)).
		Where(`"id" = ?`, id).
		Where(`"user_id" = ?`, userID).
		Exec(ctx)

	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id":      id.String(),
				"user_id": userID.String(),
			})
	}

	return nil
}
