// Package stats derives dashboard aggregates from full collection
// snapshots. Everything here is a pure function: no stored aggregate
// state, every division guarded, integer rounding except for trend
// percentages which keep one decimal.
package stats

import (
	"math"
	"sort"
	"time"

	"dorm-occupancy-backend/internal/model"
)

// DashboardStats is the basic aggregate block shown on the dashboard.
type DashboardStats struct {
	TotalWorkers     int `json:"totalWorkers"`
	ActiveWorkers    int `json:"activeWorkers"`
	InactiveWorkers  int `json:"inactiveWorkers"`
	RemainingWorkers int `json:"remainingWorkers"`
	AverageStayDays  int `json:"averageStayDays"`
	OccupancyRate    int `json:"occupancyRate"`
	MaleWorkers      int `json:"maleWorkers"`
	FemaleWorkers    int `json:"femaleWorkers"`
	AverageAgeMale   int `json:"averageAgeMale"`
	AverageAgeFemale int `json:"averageAgeFemale"`
	TotalRooms       int `json:"totalRooms"`
	OccupiedRooms    int `json:"occupiedRooms"`
	ExitPercentage   int `json:"exitPercentage"`
}

// Basic computes the dashboard aggregate block. Gender is always
// derived from the owning dorm; workers whose dorm reference dangles
// count in the totals but in neither gender bucket.
func Basic(workers []model.Worker, rooms []model.Room, dorms []model.Dorm, now time.Time) DashboardStats {
	var active, inactive []model.Worker
	for _, w := range workers {
		if w.Status == model.StatusActive {
			active = append(active, w)
		} else {
			inactive = append(inactive, w)
		}
	}

	var males, females []model.Worker
	for _, w := range active {
		switch gender, _ := model.GenderOf(w.DormID, dorms); gender {
		case model.GenderMale:
			males = append(males, w)
		case model.GenderFemale:
			females = append(females, w)
		}
	}

	occupied := 0
	for _, r := range rooms {
		if r.CurrentOccupancy > 0 {
			occupied++
		}
	}

	totalCapacity := len(rooms) * model.RoomCapacity

	return DashboardStats{
		TotalWorkers:     len(workers),
		ActiveWorkers:    len(active),
		InactiveWorkers:  len(inactive),
		RemainingWorkers: totalCapacity - len(active),
		AverageStayDays:  meanStay(inactive),
		OccupancyRate:    pct(len(active), totalCapacity),
		MaleWorkers:      len(males),
		FemaleWorkers:    len(females),
		AverageAgeMale:   meanAge(males, now),
		AverageAgeFemale: meanAge(females, now),
		TotalRooms:       len(rooms),
		OccupiedRooms:    occupied,
		ExitPercentage:   pct(len(inactive), len(workers)),
	}
}

// RecentExits returns the most recently checked-out workers, newest
// first.
func RecentExits(workers []model.Worker, limit int) []model.RecentExit {
	var out []model.Worker
	for _, w := range workers {
		if w.Status == model.StatusInactive && w.CheckOutDate != nil {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckOutDate.After(out[j].CheckOutDate.Time)
	})
	if len(out) > limit {
		out = out[:limit]
	}

	exits := make([]model.RecentExit, 0, len(out))
	for _, w := range out {
		reason := w.ExitReason
		if reason == "" {
			reason = "Not specified"
		}
		exits = append(exits, model.RecentExit{
			WorkerName:       w.FullName,
			ExitReason:       reason,
			ExitDate:         w.CheckOutDate.Time,
			StayDurationDays: w.StayDurationDays,
		})
	}
	return exits
}

// --- helpers ---

// pct rounds num/den to a whole percentage, 0 when den is 0.
func pct(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}

// round1 keeps one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func meanStay(inactive []model.Worker) int {
	if len(inactive) == 0 {
		return 0
	}
	sum := 0
	for _, w := range inactive {
		sum += w.StayDurationDays
	}
	return int(math.Round(float64(sum) / float64(len(inactive))))
}

func meanAge(workers []model.Worker, now time.Time) int {
	if len(workers) == 0 {
		return 0
	}
	sum := 0
	for _, w := range workers {
		sum += w.Age(now)
	}
	return int(math.Round(float64(sum) / float64(len(workers))))
}
