package employee

import "time"

type Employee struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	FullName   string    `gorm:"column:full_name;not null"`
	Position   string    `gorm:"column:position;not null"`
	Department string    `gorm:"column:department;index;not null"`
	Email      string    `gorm:"column:email;uniqueIndex;not null"`
	Image      *string   `gorm:"column:image"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}
