package model

import "time"

// Section is a named grouping of questions referenced by assessment
// structures.
type Section struct {
	ID           int64     `json:"section_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateSectionRequest is the payload for creating a section.
type CreateSectionRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=255"`
	Description  string `json:"description" binding:"omitempty,max=2000"`
	DisplayOrder int    `json:"display_order" binding:"min=0"`
}

// UpdateSectionRequest is the payload for updating a section.
type UpdateSectionRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=255"`
	Description  string `json:"description" binding:"omitempty,max=2000"`
	DisplayOrder int    `json:"display_order" binding:"min=0"`
}
