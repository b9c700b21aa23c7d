package models

import "time"

type TechnicianStatus string

const (
	TechAvailable TechnicianStatus = "available"
	TechBusy      TechnicianStatus = "busy"
	TechOffline   TechnicianStatus = "offline"
)

func ValidTechnicianStatus(s TechnicianStatus) bool {
	switch s {
	case TechAvailable, TechBusy, TechOffline:
		return true
	}
	return false
}

type Technician struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"`
	CompanyID string           `json:"companyId" gorm:"size:36;not null;index"`
	Name      string           `json:"name" gorm:"not null"`
	Email     string           `json:"email" gorm:"not null;index"`
	Phone     string           `json:"phone"`
	Status    TechnicianStatus `json:"status" gorm:"not null;default:'available'"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (Technician) TableName() string {
	return "technicians"
}
