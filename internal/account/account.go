package account

import (
	"errors"
	"time"

	accountDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/account"
)

// Account is a registered login. PasswordHash is a bcrypt hash, never the plaintext.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("account email already exists")
)

func ToDataModel(a *Account) *accountDatamodel.Account {
	return &accountDatamodel.Account{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func FromDataModel(a *accountDatamodel.Account) *Account {
	return &Account{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}
