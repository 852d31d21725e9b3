package model

import "time"

// Gender of a dormitory wing. Dorms are segregated, so a worker's
// gender is always derived from the owning dorm, never from the room.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Dorm represents a gender-segmented wing of the facility.
// Immutable after creation except for timestamps.
type Dorm struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Name          Gender    `gorm:"uniqueIndex;size:16;not null" json:"name"`
	LocalizedName string    `gorm:"size:128" json:"localized_name"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Rooms []Room `gorm:"foreignKey:DormID" json:"-"`
}

// GenderOf resolves a worker's gender through the dorm it lives in.
// Returns false when the dorm reference is dangling.
func GenderOf(dormID string, dorms []Dorm) (Gender, bool) {
	for _, d := range dorms {
		if d.ID == dormID {
			return d.Name, true
		}
	}
	return "", false
}
