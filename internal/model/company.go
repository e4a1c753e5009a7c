package model

import "time"

// Company groups the assessments published under one hiring organization.
type Company struct {
	ID          int64     `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCompanyRequest is the payload for creating a company.
type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	LogoURL     string `json:"logo_url" binding:"omitempty,url,max=500"`
}

// UpdateCompanyRequest is the payload for updating a company.
type UpdateCompanyRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	LogoURL     string `json:"logo_url" binding:"omitempty,url,max=500"`
}
