package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Assessment is a timed collection of sections a candidate completes once.
// Structure is a JSONB payload whose "sections" list is the only authority on
// which sections belong to the assessment; there is no all-sections fallback.
type Assessment struct {
	ID              int64           `json:"assessment_id"`
	CompanyID       int64           `json:"company_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CreatedBy       string          `json:"created_by,omitempty"`
	ScheduledAt     *time.Time      `json:"scheduled_at,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	Structure       json.RawMessage `json:"structure"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SectionRef is one entry of structure.sections. Exactly one of ID or Name is
// set: numeric refs resolve by direct lookup, string refs fall back to a
// name/code scan over the full section list.
type SectionRef struct {
	ID   int64
	Name string
}

// structureDoc mirrors the JSON shape of the structure payload.
type structureDoc struct {
	Sections []json.RawMessage `json:"sections"`
}

// sectionRefObject covers the richer structure format where each entry is an
// object carrying the section identifier under one of several historic keys.
type sectionRefObject struct {
	SectionID *int64 `json:"sectionId"`
	SnakeID   *int64 `json:"section_id"`
	ID        *int64 `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

// SectionRefs parses structure.sections. Entries may be bare numbers, bare
// strings (numeric strings count as ids, anything else as a legacy name/code)
// or objects carrying an identifier field. Malformed entries are skipped; the
// caller decides what an empty result means.
func (a *Assessment) SectionRefs() []SectionRef {
	if len(a.Structure) == 0 {
		return nil
	}

	var doc structureDoc
	if err := json.Unmarshal(a.Structure, &doc); err != nil {
		return nil
	}

	refs := make([]SectionRef, 0, len(doc.Sections))
	for _, raw := range doc.Sections {
		if ref, ok := parseSectionRef(raw); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func parseSectionRef(raw json.RawMessage) (SectionRef, bool) {
	var num int64
	if err := json.Unmarshal(raw, &num); err == nil {
		return SectionRef{ID: num}, true
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if str == "" {
			return SectionRef{}, false
		}
		if id, err := strconv.ParseInt(str, 10, 64); err == nil {
			return SectionRef{ID: id}, true
		}
		return SectionRef{Name: str}, true
	}

	var obj sectionRefObject
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.SectionID != nil:
			return SectionRef{ID: *obj.SectionID}, true
		case obj.SnakeID != nil:
			return SectionRef{ID: *obj.SnakeID}, true
		case obj.ID != nil:
			return SectionRef{ID: *obj.ID}, true
		case obj.Name != "":
			return SectionRef{Name: obj.Name}, true
		case obj.Code != "":
			return SectionRef{Name: obj.Code}, true
		}
	}

	return SectionRef{}, false
}

// CreateAssessmentRequest is the payload for creating an assessment.
type CreateAssessmentRequest struct {
	CompanyID       int64           `json:"company_id" binding:"required"`
	Name            string          `json:"name" binding:"required,min=2,max=255"`
	Description     string          `json:"description" binding:"omitempty,max=2000"`
	ScheduledAt     *time.Time      `json:"scheduled_at" binding:"omitempty"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=1,max=480"`
	Structure       json.RawMessage `json:"structure" binding:"required"`
}

// UpdateAssessmentRequest is the payload for updating an assessment.
type UpdateAssessmentRequest struct {
	Name            string          `json:"name" binding:"omitempty,min=2,max=255"`
	Description     string          `json:"description" binding:"omitempty,max=2000"`
	ScheduledAt     *time.Time      `json:"scheduled_at" binding:"omitempty"`
	DurationMinutes int             `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Structure       json.RawMessage `json:"structure" binding:"omitempty"`
}
