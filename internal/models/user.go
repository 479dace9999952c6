// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can post peeps and follow other accounts.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:255;not null" json:"email"`
	Username     string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random identifier when the caller left it empty.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicUser is the user shape returned by the API. It never carries the
// password hash.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

// Public strips storage-only fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Username: u.Username,
	}
}

// SignupRequest is the signup payload.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest is a partial profile update. A nil field is absent and
// left untouched; a present field replaces the stored value.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
}

// Empty reports whether no field is present.
func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Username == nil
}

// TokenResponse is the OAuth2 password-flow token answer.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
