package auth

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jimiolaniyan/accounts/store"
)

// Document fields of a stored account. The email is the login identifier.
const (
	fieldEmail     = "email"
	fieldUsername  = "username"
	fieldPassword  = "password"
	fieldCategory  = "category"
	fieldCreatedAt = "created_at"
)

// LoginField is the document field that uniquely identifies an account.
const LoginField = fieldEmail

type Account struct {
	ID          ID
	Credentials Credentials
	Category    string
	CreatedAt   time.Time
}

type ID string

// Credentials holds the account's sensitive information.
type Credentials struct {
	Email,
	Username,
	Password string
}

// AccountInfo is the public view of an account. It never carries the
// password hash.
type AccountInfo struct {
	ID        ID        `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidID          = errors.New("invalid account id")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func (a *Account) info() AccountInfo {
	return AccountInfo{
		ID:        a.ID,
		Email:     a.Credentials.Email,
		Username:  a.Credentials.Username,
		Category:  a.Category,
		CreatedAt: a.CreatedAt,
	}
}

func documentFromAccount(a *Account) store.Document {
	return store.Document{
		fieldEmail:     a.Credentials.Email,
		fieldUsername:  a.Credentials.Username,
		fieldPassword:  a.Credentials.Password,
		fieldCategory:  a.Category,
		fieldCreatedAt: a.CreatedAt,
	}
}

func accountFromDocument(d store.Document) (*Account, error) {
	email, ok := d[fieldEmail].(string)
	if !ok || email == "" {
		return nil, errors.Errorf("document %s has no %s", d.ID(), fieldEmail)
	}

	acc := &Account{
		ID: ID(d.ID()),
		Credentials: Credentials{
			Email:    email,
			Username: stringField(d, fieldUsername),
			Password: stringField(d, fieldPassword),
		},
		Category: stringField(d, fieldCategory),
	}
	if t, ok := d[fieldCreatedAt].(time.Time); ok {
		acc.CreatedAt = t
	}
	return acc, nil
}

func stringField(d store.Document, key string) string {
	s, _ := d[key].(string)
	return s
}
