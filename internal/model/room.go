package model

import "time"

// RoomCapacity is fixed for every room in the facility.
const RoomCapacity = 4

// Room is a capacity-4 unit inside a dorm. CurrentOccupancy is a
// denormalized counter: the count of Active workers assigned to the
// room. It is maintained by every worker mutation and only recomputed
// from scratch by the repair pass.
type Room struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	DormID           string    `gorm:"index;size:64;not null" json:"dorm_id"`
	RoomNumber       int       `gorm:"not null" json:"room_number"`
	Capacity         int       `gorm:"not null" json:"capacity"`
	CurrentOccupancy int       `gorm:"not null" json:"current_occupancy"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Dorm Dorm `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ClampOccupancy bounds an occupancy value to [0, capacity].
func ClampOccupancy(n, capacity int) int {
	if capacity <= 0 {
		capacity = RoomCapacity
	}
	if n < 0 {
		return 0
	}
	if n > capacity {
		return capacity
	}
	return n
}
