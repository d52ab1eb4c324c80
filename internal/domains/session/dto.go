package session

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ========================================
// AUTH DTOs
// ========================================

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("invalid email format"),
			validation.Length(5, 255),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(6, 128).Error("password must be 6-128 characters"),
		),
		validation.Field(&r.Name,
			validation.Length(0, 100),
		),
	)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse returns the session token; the session state itself arrives
// through the feed, not through this payload.
type LoginResponse struct {
	Token string `json:"token"`
}

// SessionDTO is the wire shape of a Session.
type SessionDTO struct {
	User    *UserDTO `json:"user"`
	Loading bool     `json:"loading"`
	IsAdmin bool     `json:"isAdmin"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ToDTO converts a session for the wire.
func ToDTO(s Session) SessionDTO {
	dto := SessionDTO{Loading: s.Loading, IsAdmin: s.IsAdmin}
	if s.User != nil {
		dto.User = &UserDTO{
			ID:    s.User.ID.String(),
			Email: s.User.Email,
			Name:  s.User.Name,
		}
	}
	return dto
}
