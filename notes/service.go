package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ErrNoteNotFound is returned when a note lookup misses
var ErrNoteNotFound = errors.New("Note not found", errors.CategoryNotFound).
	WithTextCode("NOTE_NOT_FOUND")

// NewDuplicateTitleError reports a note create or rename against a title
// that is already taken.
func NewDuplicateTitleError(title string) *errors.Error {
	return errors.New(
		fmt.Sprintf("Note with title '%s' already exists.", title),
		errors.CategoryConflict,
	).
		WithTextCode("DUPLICATE_TITLE").
		WithMetadata(map[string]any{"title": title})
}

// NewNoteMissingError reports a write against a note id the caller does not
// own or that does not exist.
func NewNoteMissingError(id uuid.UUID) *errors.Error {
	return errors.New(
		fmt.Sprintf("Note with id '%s' not found.", id),
		errors.CategoryNotFound,
	).
		WithTextCode("NOTE_MISSING").
		WithMetadata(map[string]any{"id": id.String()})
}

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Service owns the note lifecycle. Reads and writes are always scoped to
// the calling user, titles are unique across the whole table.
type Service struct {
	repo   Notes
	logger Logger
}

func NewService(repo Notes) *Service {
	return &Service{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	s.logger = logger
	return s
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, title, content string) (*Note, error) {
	if _, err := s.repo.GetByTitle(ctx, title); err == nil {
		return nil, NewDuplicateTitleError(title)
	} else if !repository.IsRecordNotFound(err) {
		s.logger.Error("Create title lookup error", "error", err)
		return nil, err
	}

	note := &Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	}

	created, err := s.repo.Add(ctx, note)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, NewDuplicateTitleError(title)
		}
		s.logger.Error("Create note error", "error", err)
		return nil, err
	}

	return created, nil
}

func (s *Service) GetNotes(ctx context.Context, userID uuid.UUID) ([]*Note, error) {
	records, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("GetNotes list error", "error", err)
		return nil, err
	}

	return records, nil
}

func (s *Service) GetNote(ctx context.Context, userID, id uuid.UUID) (*Note, error) {
	note, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNoteNotFound
		}
		s.logger.Error("GetNote lookup error", "error", err)
		return nil, err
	}

	return note, nil
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, title, content string) (*Note, error) {
	note, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNoteMissingError(id)
		}
		s.logger.Error("Update lookup error", "error", err)
		return nil, err
	}

	if title != "" && strings.TrimSpace(title) != note.Title {
		if _, err := s.repo.GetByTitle(ctx, title); err == nil {
			return nil, NewDuplicateTitleError(title)
		} else if !repository.IsRecordNotFound(err) {
			s.logger.Error("Update title lookup error", "error", err)
			return nil, err
		}
		note.Title = strings.TrimSpace(title)
	}

	note.Content = content

	updated, err := s.repo.Update(ctx, note, repository.UpdateByID(note.ID.String()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, NewDuplicateTitleError(title)
		}
		s.logger.Error("Update note error", "error", err)
		return nil, err
	}

	return updated, nil
}

// Delete removes a note and returns the removed record
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) (*Note, error) {
	note, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNoteMissingError(id)
		}
		s.logger.Error("Delete lookup error", "error", err)
		return nil, err
	}

	if err := s.repo.Remove(ctx, id, userID); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNoteMissingError(id)
		}
		s.logger.Error("Delete note error", "error", err)
		return nil, err
	}

	return note, nil
}

// isUniqueViolation covers the sqlite and postgres duplicate key shapes, a
// concurrent create can slip past the existence check.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] NOTES "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] NOTES "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] NOTES "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] NOTES "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
