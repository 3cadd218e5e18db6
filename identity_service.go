package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IdentityService orchestrates registration, authentication, and record
// management against the persistence collaborator. It performs no
// authorization: callers gate access with the policy helpers first.
type IdentityService struct {
	repo         RepositoryManager
	logger       Logger
	activitySink ActivitySink
	maxPageSize  int
	now          func() time.Time
}

// NewIdentityService returns a new IdentityService. cfg may be nil, in which
// case the package defaults apply.
func NewIdentityService(repo RepositoryManager, cfg Config) *IdentityService {
	maxPageSize := DefaultMaxPageSize
	if cfg != nil && cfg.GetMaxPageSize() > 0 {
		maxPageSize = cfg.GetMaxPageSize()
	}

	if repo != nil && repo.Users() != nil {
		if store, ok := repo.Users().(interface{ SetMaxPageSize(int) }); ok {
			store.SetMaxPageSize(maxPageSize)
		}
	}

	return &IdentityService{
		repo:         repo,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		maxPageSize:  maxPageSize,
		now:          time.Now,
	}
}

func (s *IdentityService) WithLogger(logger Logger) *IdentityService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting audit events.
func (s *IdentityService) WithActivitySink(sink ActivitySink) *IdentityService {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock overrides the time source used for timestamps
func (s *IdentityService) WithClock(now func() time.Time) *IdentityService {
	if now != nil {
		s.now = now
	}
	return s
}

// RegisterMessage carries the payload for a new registration. The plaintext
// password exists only for the duration of the call.
type RegisterMessage struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (m RegisterMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&m.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Password, validation.Required),
	)
}

// UpdateMessage is a partial patch: only non-nil fields are applied
type UpdateMessage struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

func (m UpdateMessage) IsEmpty() bool {
	return m.Email == nil && m.Username == nil && m.Password == nil &&
		m.IsActive == nil && m.IsSuperuser == nil
}

func (m UpdateMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, is.Email, validation.Length(6, 100)),
		validation.Field(&m.Username, validation.Length(1, 100)),
	)
}

// Register creates a new identity. The email/username pre-check is an
// optimization: under concurrent registration the unique constraint at
// commit time is authoritative and still surfaces as Conflict.
func (s *IdentityService) Register(ctx context.Context, msg RegisterMessage) (*User, error) {
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithTextCode("INVALID_REGISTRATION")
	}

	users := s.repo.Users()

	if _, err := users.GetByEmail(ctx, msg.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email uniqueness")
	}

	if _, err := users.GetByUsername(ctx, msg.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check username uniqueness")
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	now := s.now()
	user := &User{
		Email:        msg.Email,
		Username:     msg.Username,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    &now,
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			user.ID = id
		}
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := users.CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}
		user = created
		return nil
	})

	if err != nil {
		if IsConflict(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity registration failed")
	}

	s.emit(ctx, ActivityEventIdentityCreated, ActorRef{Type: "system"}, user.ID.String(), map[string]any{
		"username": user.Username,
		"email":    user.Email,
	})
	s.logger.Info("new identity created", "username", user.Username)

	return user.Sanitized(), nil
}

// Authenticate resolves an identity from a credential presentation. Unknown
// identifiers, wrong passwords, and inactive accounts all produce the same
// outward ErrInvalidCredentials; the audit trail records which it was.
func (s *IdentityService) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if IsRecordNotFound(err) {
			s.emit(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"identifier": identifier,
				"reason":     "unknown identifier",
			})
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve identity during verification")
	}

	if !user.IsActive {
		s.emit(ctx, ActivityEventLoginFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"identifier": identifier,
			"reason":     "inactive identity",
		})
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.emit(ctx, ActivityEventLoginFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"identifier": identifier,
			"reason":     "bad credential",
		})
		return nil, ErrInvalidCredentials
	}

	s.emit(ctx, ActivityEventLoginSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"identifier": identifier,
	})
	s.logger.Info("identity authenticated", "username", user.Username)

	return user.Sanitized(), nil
}

// GetByID fetches a single identity
func (s *IdentityService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.Users().GetByUserID(ctx, id)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve identity")
	}
	return user.Sanitized(), nil
}

// GetByIdentifier fetches a single identity by id, email, or username
func (s *IdentityService) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve identity")
	}
	return user.Sanitized(), nil
}

// List returns identities in insertion order. The limit is capped at the
// configured max page size regardless of what the caller asked for.
func (s *IdentityService) List(ctx context.Context, skip, limit int) ([]*User, error) {
	if limit <= 0 || limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	records, err := s.repo.Users().ListPage(ctx, skip, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list identities")
	}

	out := make([]*User, 0, len(records))
	for _, record := range records {
		out = append(out, record.Sanitized())
	}
	return out, nil
}

// Update applies a partial patch to an identity. The write is all or
// nothing: a persistence failure rolls the whole patch back. A new
// plaintext password is re-hashed before storage.
func (s *IdentityService) Update(ctx context.Context, id uuid.UUID, msg UpdateMessage) (*User, error) {
	if msg.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid update payload").
			WithTextCode("INVALID_UPDATE")
	}

	var updated *User
	var columns []string

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByUserIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if msg.Email != nil {
			user.Email = *msg.Email
			columns = append(columns, "email")
		}
		if msg.Username != nil {
			user.Username = *msg.Username
			columns = append(columns, "username")
		}
		if msg.IsActive != nil {
			user.IsActive = *msg.IsActive
			columns = append(columns, "is_active")
		}
		if msg.IsSuperuser != nil {
			user.IsSuperuser = *msg.IsSuperuser
			columns = append(columns, "is_superuser")
		}
		if msg.Password != nil {
			hash, err := HashPassword(*msg.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
			columns = append(columns, "password_hash")
		}

		user.Touch(s.now())
		columns = append(columns, "updated_at")

		updated, err = s.repo.Users().PatchTx(ctx, tx, user, columns...)
		return err
	})

	if err != nil {
		switch {
		case IsRecordNotFound(err):
			return nil, ErrIdentityNotFound
		case IsConflict(err), IsValidationFailure(err):
			return nil, err
		default:
			return nil, errors.Wrap(err, errors.CategoryInternal, "identity update failed")
		}
	}

	s.emit(ctx, ActivityEventIdentityUpdated, ActorRef{Type: "system"}, id.String(), map[string]any{
		"fields": columns,
	})

	return updated.Sanitized(), nil
}

// Delete permanently removes an identity. Hard delete, no recovery.
func (s *IdentityService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().DeleteByUserIDTx(ctx, tx, id)
	})

	if err != nil {
		if IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "identity delete failed")
	}

	s.emit(ctx, ActivityEventIdentityDeleted, ActorRef{Type: "system"}, id.String(), nil)
	s.logger.Info("identity deleted", "id", id.String())

	return nil
}

// emit records an audit event. Fire and forget: sink failures are logged
// and swallowed so auditing can never fail the calling operation.
func (s *IdentityService) emit(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Error("failed to record activity event", "event", string(eventType), "error", err)
	}
}
