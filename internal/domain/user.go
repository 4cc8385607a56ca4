package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role names
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a marketplace account
type User struct {
	ID              int64      `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" db:"email_verified_at"`
	Roles           []string   `json:"roles" db:"-"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the user holds the named role
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// PrimaryRole is the role carried in access tokens
func (u *User) PrimaryRole() string {
	if u.HasRole(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// UserDetail holds the optional profile fields of a user
type UserDetail struct {
	ID           int64  `json:"id" db:"id"`
	UserID       int64  `json:"user_id" db:"user_id"`
	Postal       string `json:"postal" db:"postal"`
	Address      string `json:"address" db:"address"`
	Building     string `json:"building" db:"building"`
	Introduction string `json:"introduction" db:"introduction"`
}

// UserImage is the single avatar of a user
type UserImage struct {
	ID        int64  `json:"id" db:"id"`
	UserID    int64  `json:"user_id" db:"user_id"`
	ImagePath string `json:"image_path" db:"image_path"`
}

// Profile is the editable view of the acting user
type Profile struct {
	User   *User       `json:"user"`
	Detail *UserDetail `json:"user_detail"`
	Image  *UserImage  `json:"user_image"`
}

// RefreshToken represents a session refresh token
type RefreshToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
}

// Principal is the authenticated actor of a request
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether the principal may act on a resource owned by ownerID
func (p Principal) Owns(ownerID int64) bool {
	return p.UserID == ownerID || p.IsAdmin()
}
