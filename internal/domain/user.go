package domain

import "time"

type User struct {
	ID           string     `json:"id"` // Snowflake ID
	Email        string     `json:"email"`
	PasswordHash *string    `json:"-"`      // Omit from JSON responses
	Status       string     `json:"status"` // 'active', 'suspended', 'deleted'
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	// Secondary profile record, loaded on demand.
	Profile *Profile `json:"profile,omitempty"`
	// Role names ordered by assignment time; first assigned is primary.
	Roles []string `json:"roles,omitempty"`
}

// PrimaryRole is the first-assigned role, or def when none is assigned yet.
func (u *User) PrimaryRole(def string) string {
	if len(u.Roles) == 0 {
		return def
	}
	return u.Roles[0]
}

type Profile struct {
	UserID    string    `json:"user_id"`
	FirstName *string   `json:"first_name,omitempty"` // Optional
	LastName  *string   `json:"last_name,omitempty"`  // Optional
	Phone     *string   `json:"phone,omitempty"`      // Normalized digits, unique
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate carries the fields a caller wants changed. Nil means keep
// the stored value; the repository merges per field.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// ProfileHints carries optional enrichment data captured before the
// identity exists, e.g. a name typed during OTP signup.
type ProfileHints struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)
