package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted identity record. PasswordHash is never serialized
// to any external-facing representation.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	IsSuperuser   bool       `bun:"is_superuser,notnull,default:false" json:"is_superuser"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// Sanitized returns a copy safe for external representations: the stored
// hash is blanked out.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	return &out
}

// Identity adapts the record to the Identity interface
func (u *User) Identity() Identity {
	if u == nil {
		return nil
	}
	return authIdentity{
		id:        u.ID.String(),
		username:  u.Username,
		email:     u.Email,
		superuser: u.IsSuperuser,
	}
}

// Touch refreshes the updated_at timestamp
func (u *User) Touch(now time.Time) {
	u.UpdatedAt = &now
}

type authIdentity struct {
	id        string
	username  string
	email     string
	superuser bool
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) IsSuperuser() bool {
	return a.superuser
}

var _ Identity = authIdentity{}
