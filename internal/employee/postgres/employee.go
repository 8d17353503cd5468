package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/employee-directory/internal/core/common/dberr"
	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List filters on an exact department when one is given, oldest first.
func (r *EmployeeRepository) List(ctx context.Context, department string) ([]*employee.Employee, error) {
	var rows []*employeeDatamodel.Employee
	query := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if department != "" {
		query = query.Where("department = ?", department)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	employees := make([]*employee.Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, employee.FromDataModel(row))
	}
	return employees, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *EmployeeRepository) first(ctx context.Context, cond string, arg string) (*employee.Employee, error) {
	var row employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where(cond, arg).First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, employee.ErrNotFound
		}
		return nil, err
	}
	return employee.FromDataModel(&row), nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	row := employee.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if dberr.IsDuplicateKey(err) {
			return employee.ErrDuplicate
		}
		return err
	}
	e.CreatedAt = row.CreatedAt
	e.UpdatedAt = row.UpdatedAt
	return nil
}

// Update writes every mutable column of e, including a nil image.
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	e.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&employeeDatamodel.Employee{}).
		Where("id = ?", e.ID).
		Updates(map[string]interface{}{
			"full_name":  e.FullName,
			"position":   e.Position,
			"department": e.Department,
			"email":      e.Email,
			"image":      e.Image,
			"updated_at": e.UpdatedAt,
		})
	if result.Error != nil {
		if dberr.IsDuplicateKey(result.Error) {
			return employee.ErrDuplicate
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&employeeDatamodel.Employee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return employee.ErrNotFound
	}
	return nil
}
