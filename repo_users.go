package identity

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultMaxPageSize bounds list results regardless of the caller requested
// limit.
var DefaultMaxPageSize = 100

// Users is the persistence collaborator for identity records. Every method
// has a Tx variant so service operations can run inside one logical
// transaction per request.
type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByUserID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	ListPage(ctx context.Context, skip, limit int) ([]*User, error)
	ListPageTx(ctx context.Context, tx bun.IDB, skip, limit int) ([]*User, error)

	Patch(ctx context.Context, record *User, columns ...string) (*User, error)
	PatchTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error)

	DeleteByUserID(ctx context.Context, id uuid.UUID) error
	DeleteByUserIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db          *bun.DB
	maxPageSize int
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the bun-backed Users store
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
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		// Concurrent registrations can pass the service pre-check and still
		// collide here; a commit-time violation is a Conflict, not internal.
		if IsUniqueViolation(err) {
			return nil, conflictFromUniqueViolation(err)
		}
		return nil, err
	}
	return created, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"identifier": identifier,
			})
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if isNoRows(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) GetByUserID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByUserIDTx(ctx, a.db, id)
}

func (a *users) GetByUserIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, a.db, "email", email)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.getByColumn(ctx, a.db, "username", username)
}

func (a *users) getByColumn(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ListPage(ctx context.Context, skip, limit int) ([]*User, error) {
	return a.ListPageTx(ctx, a.db, skip, limit)
}

// SetMaxPageSize overrides the list clamp for this store. The identity
// service forwards its configured cap here so a single limit applies.
func (a *users) SetMaxPageSize(size int) {
	if size > 0 {
		a.maxPageSize = size
	}
}

// ListPageTx returns identities in insertion order (created_at, id
// ascending). The limit is capped so a caller can never pull the whole
// table in one page.
func (a *users) ListPageTx(ctx context.Context, tx bun.IDB, skip, limit int) ([]*User, error) {
	maxSize := a.maxPageSize
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > maxSize {
		limit = maxSize
	}

	records := []*User{}
	err := tx.NewSelect().Model(&records).
		Order("created_at ASC").
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *users) Patch(ctx context.Context, record *User, columns ...string) (*User, error) {
	return a.PatchTx(ctx, a.db, record, columns...)
}

// PatchTx persists only the named columns of record. An empty column list
// is a no-op.
func (a *users) PatchTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error) {
	if len(columns) == 0 {
		return record, nil
	}

	res, err := tx.NewUpdate().Model(record).
		Column(columns...).
		WherePK().
		Exec(ctx)

	if err != nil {
		if IsUniqueViolation(err) {
			return nil, conflictFromUniqueViolation(err)
		}
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": record.ID.String(),
			})
	}

	return record, nil
}

func (a *users) DeleteByUserID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByUserIDTx(ctx, a.db, id)
}

func (a *users) DeleteByUserIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// IsRecordNotFound checks for missing records, whether surfaced by the
// repository layer or by a raw scan.
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// either classified by the repository layer or surfaced raw by the driver.
// The raw check covers sqlite and postgres wire formats for queries that
// bypass the repository, such as column patches.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if repository.IsConstraintViolation(err) {
		return true
	}

	msg := errorChainText(err)
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}

func conflictFromUniqueViolation(err error) error {
	msg := errorChainText(err)
	switch {
	case strings.Contains(msg, "email"):
		return ErrEmailTaken
	case strings.Contains(msg, "username"):
		return ErrUsernameTaken
	}
	return errors.Wrap(err, errors.CategoryConflict, "identity already exists")
}

// errorChainText flattens the full wrap chain so the driver message stays
// visible behind the repository's rich errors.
func errorChainText(err error) string {
	var sb strings.Builder
	for e := err; e != nil; {
		sb.WriteString(e.Error())
		sb.WriteString(" ")

		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return sb.String()
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
