// Package lifecycle contains the pure business-invariant core of
// worker check-in, update, checkout and deletion. It decides WHAT has
// to change — worker fields plus room occupancy deltas — and leaves
// execution (transactional against the remote store, sequential
// against the local cache) to the caller.
package lifecycle

import (
	"strings"
	"time"

	"dorm-occupancy-backend/internal/model"
)

// RoomDelta is one occupancy adjustment. Executors clamp the result
// to [0, capacity] and skip rooms that no longer exist, logging a
// warning instead of failing the worker write.
type RoomDelta struct {
	RoomID string
	Delta  int
}

// ValidateCreate enforces the check-in preconditions. Room and dorm
// references must be non-empty; the room's existence is deliberately
// NOT required here (orphaned references are repaired later).
func ValidateCreate(req model.CreateWorkerRequest) error {
	if strings.TrimSpace(req.RoomID) == "" {
		return errRoomRequired
	}
	if strings.TrimSpace(req.DormID) == "" {
		return errDormRequired
	}
	if strings.TrimSpace(req.FullName) == "" {
		return errNameRequired
	}
	return nil
}

// Sentinel validation messages, converted to tagged store errors by
// the executors.
var (
	errRoomRequired = validationError("room id is required")
	errDormRequired = validationError("dorm id is required")
	errNameRequired = validationError("full name is required")
	errRoomInvalid  = validationError("new room id is invalid")
)

type validationError string

func (e validationError) Error() string { return string(e) }

// IsValidationError reports whether err originated from lifecycle
// validation.
func IsValidationError(err error) bool {
	_, ok := err.(validationError)
	return ok
}

// NewWorker materializes a worker record for check-in. Stay duration
// starts at 0: nothing has elapsed yet, and the counter is only ever
// fixed at checkout.
func NewWorker(req model.CreateWorkerRequest, now time.Time) model.Worker {
	checkIn := req.CheckInDate
	if checkIn.IsZero() {
		checkIn = model.NewDate(now)
	}
	return model.Worker{
		ID:               model.NewID("worker"),
		FullName:         req.FullName,
		NationalID:       req.NationalID,
		Phone:            req.Phone,
		BirthYear:        req.BirthYear,
		DormID:           req.DormID,
		RoomID:           req.RoomID,
		CheckInDate:      checkIn,
		Status:           model.StatusActive,
		StayDurationDays: 0,
	}
}

// StayDays computes the whole-day difference between check-in and
// check-out, floored at 0.
func StayDays(checkIn, checkOut time.Time) int {
	days := int(checkOut.Sub(checkIn).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// UpdatePlan is the outcome of planning a worker patch: the mutated
// worker plus the room occupancy side effects to apply alongside it.
type UpdatePlan struct {
	Worker model.Worker
	Deltas []RoomDelta
}

// PlanUpdate merges a patch into the current worker and derives the
// occupancy bookkeeping. The three branches — checkout, reactivation,
// room transfer — are independent and combinable in one call.
func PlanUpdate(current model.Worker, upd model.UpdateWorkerRequest) (UpdatePlan, error) {
	next := current
	var deltas []RoomDelta

	if upd.FullName != nil {
		next.FullName = *upd.FullName
	}
	if upd.NationalID != nil {
		next.NationalID = *upd.NationalID
	}
	if upd.Phone != nil {
		next.Phone = *upd.Phone
	}
	if upd.BirthYear != nil {
		next.BirthYear = *upd.BirthYear
	}
	if upd.DormID != nil {
		next.DormID = *upd.DormID
	}
	if upd.ExitReason != nil {
		next.ExitReason = *upd.ExitReason
	}

	// Room transfer: decrement the old room when its reference was
	// valid, increment the new one. The two sides are independently
	// fault-tolerant at execution time.
	if upd.RoomID != nil && *upd.RoomID != current.RoomID {
		if strings.TrimSpace(*upd.RoomID) == "" {
			return UpdatePlan{}, errRoomInvalid
		}
		if strings.TrimSpace(current.RoomID) != "" {
			deltas = append(deltas, RoomDelta{RoomID: current.RoomID, Delta: -1})
		}
		deltas = append(deltas, RoomDelta{RoomID: *upd.RoomID, Delta: +1})
		next.RoomID = *upd.RoomID
	}

	if upd.CheckOutDate.Present {
		if upd.CheckOutDate.Value != nil {
			out := model.NewDate(*upd.CheckOutDate.Value)
			if current.CheckOutDate == nil {
				// First-time checkout: fix the stay duration and free
				// the bed the worker occupied before any transfer in
				// this same patch.
				next.StayDurationDays = StayDays(current.CheckInDate.Time, out.Time)
				if strings.TrimSpace(current.RoomID) != "" {
					deltas = append(deltas, RoomDelta{RoomID: current.RoomID, Delta: -1})
				}
			}
			next.CheckOutDate = &out
			next.Status = model.StatusInactive
		} else if current.CheckOutDate != nil {
			// Reactivation clears the checkout but does not restore
			// occupancy; an explicit room change is required for the
			// worker to count against a bed again.
			next.CheckOutDate = nil
			next.Status = model.StatusActive
		}
	}

	return UpdatePlan{Worker: next, Deltas: deltas}, nil
}

// PlanDelete derives the occupancy side effect of removing a worker:
// active workers free their bed, inactive ones already have.
func PlanDelete(current model.Worker) []RoomDelta {
	if current.Status != model.StatusActive {
		return nil
	}
	if strings.TrimSpace(current.RoomID) == "" {
		return nil
	}
	return []RoomDelta{{RoomID: current.RoomID, Delta: -1}}
}
