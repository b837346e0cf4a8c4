package entity

import "time"

// RequirementType is a named requirement category.
type RequirementType struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (RequirementType) TableName() string {
	return "requirement_types"
}

// DefaultTypeNames are seeded on startup.
var DefaultTypeNames = []string{
	"Special Order",
	"Bulk Purchase",
	"Custom Item",
	"Rush Delivery",
	"Product Inquiry",
	"Price Quote",
}
