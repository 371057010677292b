package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		Image        string
		CreatedAt    time.Time
	}

	// UserUpdate carries a partial update; nil fields are left untouched.
	UserUpdate struct {
		Name  *string
		Image *string
	}

	Transaction struct {
		ID        string
		UserID    string
		Type      TransactionType
		Amount    float64
		Category  string
		Note      string
		CreatedAt time.Time
	}

	// PublicUser is the external view of a user: credential omitted,
	// id normalized to a plain string regardless of backend.
	PublicUser struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Image string `json:"image"`
	}

	Summary struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}
)

var (
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyEmail    = errors.New("empty email")
	ErrEmptyPassword = errors.New("empty password")
	ErrInvalidType   = errors.New("type must be income or expense")
	ErrInvalidAmount = errors.New("invalid amount")
)

func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (t TransactionType) String() string {
	return string(t)
}

// NormalizeEmail lowercases and trims an email address. Uniqueness
// checks and lookups always operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if u.PasswordHash == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Public returns the user view safe to expose over the API.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Image: u.Image,
	}
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero reports whether the update would change nothing.
func (u UserUpdate) IsZero() bool {
	return u.Name == nil && u.Image == nil
}

// Apply copies the set fields onto the user.
func (u UserUpdate) Apply(dst *User) {
	if u.Name != nil {
		dst.Name = *u.Name
	}
	if u.Image != nil {
		dst.Image = *u.Image
	}
}
