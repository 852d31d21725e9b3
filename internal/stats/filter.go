package stats

import (
	"time"

	"dorm-occupancy-backend/internal/model"
)

// Date range selectors.
const (
	RangeAll     = "all"
	RangeWeek    = "week"
	RangeMonth   = "month"
	RangeQuarter = "quarter"
	RangeCustom  = "custom"
)

// Filters narrows the worker set before recomputation. Empty fields
// (or "all") leave their dimension unfiltered; set fields AND
// together.
type Filters struct {
	DateRange string
	StartDate *time.Time
	EndDate   *time.Time
	Status    string // "active" | "inactive"
	Gender    string // "male" | "female"
	AgeRange  string // "18-25" | "26-35" | "36-45" | "45+"
}

// Apply filters the worker slice. The input is never mutated.
func (f Filters) Apply(workers []model.Worker, dorms []model.Dorm, now time.Time) []model.Worker {
	out := make([]model.Worker, 0, len(workers))
	for _, w := range workers {
		if f.matches(w, dorms, now) {
			out = append(out, w)
		}
	}
	return out
}

func (f Filters) matches(w model.Worker, dorms []model.Dorm, now time.Time) bool {
	switch f.DateRange {
	case RangeWeek:
		if w.CreatedAt.Before(now.AddDate(0, 0, -7)) {
			return false
		}
	case RangeMonth:
		if w.CreatedAt.Before(now.AddDate(0, 0, -30)) {
			return false
		}
	case RangeQuarter:
		if w.CreatedAt.Before(now.AddDate(0, 0, -90)) {
			return false
		}
	case RangeCustom:
		if f.StartDate != nil && w.CreatedAt.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && w.CreatedAt.After(*f.EndDate) {
			return false
		}
	}

	switch f.Status {
	case "active":
		if w.Status != model.StatusActive {
			return false
		}
	case "inactive":
		if w.Status != model.StatusInactive {
			return false
		}
	}

	if f.Gender == "male" || f.Gender == "female" {
		gender, ok := model.GenderOf(w.DormID, dorms)
		if !ok {
			return false
		}
		if f.Gender == "male" && gender != model.GenderMale {
			return false
		}
		if f.Gender == "female" && gender != model.GenderFemale {
			return false
		}
	}

	if f.AgeRange != "" && f.AgeRange != RangeAll {
		age := w.Age(now)
		inBand := false
		for _, b := range ageBands {
			if b.label == f.AgeRange {
				inBand = age >= b.min && age <= b.max
				break
			}
		}
		if !inBand {
			return false
		}
	}

	return true
}

// Filtered recomputes the basic stats and recent exits over the
// filtered worker set. Room-derived numbers (capacity, occupied
// rooms) keep the full room collection as their base.
func Filtered(workers []model.Worker, rooms []model.Room, dorms []model.Dorm, f Filters, now time.Time) (DashboardStats, []model.RecentExit) {
	narrowed := f.Apply(workers, dorms, now)
	return Basic(narrowed, rooms, dorms, now), RecentExits(narrowed, 5)
}
