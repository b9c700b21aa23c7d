package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleOwner UserRole = "owner"
	RoleTech  UserRole = "tech"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	FullName  string         `json:"fullName" gorm:"not null"`
	Role      UserRole       `json:"role" gorm:"not null;default:'owner'"`
	CompanyID string         `json:"companyId" gorm:"size:36;not null;index"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
