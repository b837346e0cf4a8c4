package entity

import (
	"time"

	"gorm.io/datatypes"
)

// StatusPending is assigned to requirements created without a status.
const StatusPending = "Pending"

// Comment is a timestamped note embedded in a requirement's comment thread.
type Comment struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Images    []string  `json:"images"`
	Videos    []string  `json:"videos"`
}

// HasContent reports whether the comment carries text or at least one media reference.
func (c Comment) HasContent() bool {
	return c.Text != "" || len(c.Images) > 0 || len(c.Videos) > 0
}

// Requirement is a customer purchase requirement.
// Type is a copy of a RequirementType name, not a foreign key.
type Requirement struct {
	ID            uint                         `json:"id" gorm:"primaryKey"`
	Customer      string                       `json:"customer" gorm:"size:255;not null"`
	Contact       string                       `json:"contact" gorm:"size:255"`
	Details       string                       `json:"details" gorm:"type:text;not null"`
	Type          string                       `json:"type" gorm:"size:255;not null"`
	Status        string                       `json:"status" gorm:"size:100;not null;default:Pending"`
	Images        datatypes.JSONSlice[string]  `json:"images"`
	Videos        datatypes.JSONSlice[string]  `json:"videos"`
	Comments      datatypes.JSONSlice[Comment] `json:"comments"`
	CreatedAt     time.Time                    `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time                    `json:"updated_at"`
	LastCommentAt *time.Time                   `json:"last_comment_at"`
}

func (Requirement) TableName() string {
	return "requirements"
}

// Normalize replaces nil media and comment lists with empty ones so they
// serialize as [] rather than null.
func (r *Requirement) Normalize() {
	if r.Images == nil {
		r.Images = datatypes.JSONSlice[string]{}
	}
	if r.Videos == nil {
		r.Videos = datatypes.JSONSlice[string]{}
	}
	if r.Comments == nil {
		r.Comments = datatypes.JSONSlice[Comment]{}
	}
	for i := range r.Comments {
		if r.Comments[i].Images == nil {
			r.Comments[i].Images = []string{}
		}
		if r.Comments[i].Videos == nil {
			r.Comments[i].Videos = []string{}
		}
	}
}
