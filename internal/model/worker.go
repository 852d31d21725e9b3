package model

import "time"

// WorkerStatus tracks whether a worker currently lives in the facility.
type WorkerStatus string

const (
	StatusActive   WorkerStatus = "Active"
	StatusInactive WorkerStatus = "Inactive"
)

// Worker is a resident tracked from check-in to optional check-out.
// Invariants: Status is Inactive iff CheckOutDate is set;
// StayDurationDays is fixed at the moment of checkout and never
// recomputed afterwards; RoomID must reference a room of DormID.
type Worker struct {
	ID               string       `gorm:"primaryKey;size:64" json:"id"`
	FullName         string       `gorm:"size:256;not null" json:"full_name"`
	NationalID       string       `gorm:"size:32" json:"national_id"`
	Phone            string       `gorm:"size:32" json:"phone"`
	BirthYear        int          `json:"birth_year"`
	DormID           string       `gorm:"index;size:64" json:"dorm_id"`
	RoomID           string       `gorm:"index;size:64" json:"room_id"`
	CheckInDate      Date         `gorm:"not null" json:"check_in_date"`
	CheckOutDate     *Date        `json:"check_out_date,omitempty"`
	ExitReason       string       `gorm:"size:256" json:"exit_reason,omitempty"`
	Status           WorkerStatus `gorm:"index;size:16;not null" json:"status"`
	StayDurationDays int          `json:"stay_duration_days"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

// Age derives the worker's age from the birth year. Zero birth years
// (legacy rows) yield 0 rather than the current year.
func (w Worker) Age(now time.Time) int {
	if w.BirthYear <= 0 {
		return 0
	}
	return now.Year() - w.BirthYear
}

// CreateWorkerRequest carries the fields an operator supplies on check-in.
type CreateWorkerRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	NationalID  string `json:"national_id"`
	Phone       string `json:"phone"`
	BirthYear   int    `json:"birth_year"`
	DormID      string `json:"dorm_id"`
	RoomID      string `json:"room_id"`
	CheckInDate Date   `json:"check_in_date"`
}

// UpdateWorkerRequest is a partial patch. Nil pointers mean "leave
// unchanged"; CheckOutDate uses NullableDate so an explicit null
// (reactivation) is distinguishable from an absent field.
type UpdateWorkerRequest struct {
	FullName     *string      `json:"full_name,omitempty"`
	NationalID   *string      `json:"national_id,omitempty"`
	Phone        *string      `json:"phone,omitempty"`
	BirthYear    *int         `json:"birth_year,omitempty"`
	DormID       *string      `json:"dorm_id,omitempty"`
	RoomID       *string      `json:"room_id,omitempty"`
	CheckOutDate NullableDate `json:"check_out_date,omitempty"`
	ExitReason   *string      `json:"exit_reason,omitempty"`
}

// RecentExit is a dashboard row describing one of the latest checkouts.
type RecentExit struct {
	WorkerName       string    `json:"worker_name"`
	ExitReason       string    `json:"exit_reason"`
	ExitDate         time.Time `json:"exit_date"`
	StayDurationDays int       `json:"stay_duration_days"`
}
