package models

import "time"

// ServiceRecord is a named service shown on the status dashboard.
// ID is zero until the record has been created by the store.
type ServiceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id,omitempty"`
	Name      string    `gorm:"size:128;uniqueIndex" json:"name"`
	Status    string    `gorm:"size:64" json:"status"`
	Icon      string    `gorm:"size:64" json:"icon,omitempty"`
	Href      string    `gorm:"size:255" json:"href,omitempty"`
	Color     string    `gorm:"size:32" json:"color,omitempty"`
	BgColor   string    `gorm:"size:32" json:"bgColor,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

func (ServiceRecord) TableName() string {
	return "services"
}

// HasID reports whether the record already exists in the store.
func (r ServiceRecord) HasID() bool {
	return r.ID != 0
}

// ReservedServiceName is the system record that aggregates every service.
// It cannot be created or renamed from the admin form.
const ReservedServiceName = "general"

// StatusEntry is one selectable value of the status catalog.
type StatusEntry struct {
	ID          int    `json:"id" mapstructure:"id"`
	Description string `json:"description" mapstructure:"description"`
}
