package models

import "time"

// Company is the tenant boundary; every job and technician is scoped to one.
type Company struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null"`
	Plan      string    `json:"plan" gorm:"not null;default:'starter'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Company) TableName() string {
	return "companies"
}
