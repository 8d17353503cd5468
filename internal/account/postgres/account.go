package postgres

import (
	"context"

	"github.com/frahmantamala/employee-directory/internal/account"
	"github.com/frahmantamala/employee-directory/internal/core/common/dberr"
	accountDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/account"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByEmail expects an already normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var row accountDatamodel.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, account.ErrNotFound
		}
		return nil, err
	}
	return account.FromDataModel(&row), nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	var row accountDatamodel.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, account.ErrNotFound
		}
		return nil, err
	}
	return account.FromDataModel(&row), nil
}

// Create relies on the unique index on email; a violation maps to account.ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	row := account.ToDataModel(a)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if dberr.IsDuplicateKey(err) {
			return account.ErrDuplicate
		}
		return err
	}
	a.CreatedAt = row.CreatedAt
	return nil
}
