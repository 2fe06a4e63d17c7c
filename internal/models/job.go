package models

import (
	"time"

	"github.com/google/uuid"
)

type Job struct {
	BaseModel
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Company     string    `json:"company" gorm:"type:varchar(255);not null"`
	City        string    `json:"city" gorm:"type:varchar(100);index"`
	Description string    `json:"description" gorm:"type:text"`
	SalaryMin   *int      `json:"salaryMin,omitempty"`
	SalaryMax   *int      `json:"salaryMax,omitempty"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true;index"`
	PostedByID  uuid.UUID `json:"postedById" gorm:"type:uuid;not null;index"`
	PostedBy    User      `json:"-" gorm:"foreignKey:PostedByID"`
}

func (Job) TableName() string {
	return "jobs"
}

type ApplicationStatus string

const (
	ApplicationStatusApplied     ApplicationStatus = "applied"
	ApplicationStatusShortlisted ApplicationStatus = "shortlisted"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
)

type Application struct {
	BaseModel
	JobID      uuid.UUID         `json:"jobId" gorm:"type:uuid;not null;uniqueIndex:idx_application_job_user"`
	UserID     uuid.UUID         `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_application_job_user"`
	Status     ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'applied'"`
	Notes      *string           `json:"notes,omitempty" gorm:"type:text"`
	ReviewedAt *time.Time        `json:"reviewedAt,omitempty"`

	Job  Job  `json:"job" gorm:"foreignKey:JobID"`
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (Application) TableName() string {
	return "applications"
}
