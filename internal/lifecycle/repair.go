package lifecycle

import (
	"fmt"
	"strings"

	"dorm-occupancy-backend/internal/model"
)

// RepairAction reassigns one orphaned worker to an available room.
type RepairAction struct {
	WorkerID string
	RoomID   string
	DormID   string
}

// RepairReport summarizes a repair pass.
type RepairReport struct {
	Fixed  int      `json:"fixed"`
	Errors []string `json:"errors"`
}

// PlanRepair scans the worker set for empty room references and
// assigns each one the first room with free capacity, preferring the
// worker's own dorm. Workers are repaired independently; a worker
// with no room available produces an error entry, not an abort.
// Occupancy is tracked across assignments so two orphans are never
// squeezed into the same last bed.
func PlanRepair(workers []model.Worker, rooms []model.Room) ([]RepairAction, []string) {
	occupancy := make(map[string]int, len(rooms))
	for _, r := range rooms {
		occupancy[r.ID] = r.CurrentOccupancy
	}

	free := func(r model.Room) bool {
		cap := r.Capacity
		if cap <= 0 {
			cap = model.RoomCapacity
		}
		return occupancy[r.ID] < cap
	}

	var actions []RepairAction
	var errs []string
	for _, w := range workers {
		if strings.TrimSpace(w.RoomID) != "" {
			continue
		}

		var target *model.Room
		for i := range rooms {
			if w.DormID != "" && rooms[i].DormID != w.DormID {
				continue
			}
			if free(rooms[i]) {
				target = &rooms[i]
				break
			}
		}
		if target == nil {
			for i := range rooms {
				if free(rooms[i]) {
					target = &rooms[i]
					break
				}
			}
		}

		if target == nil {
			errs = append(errs, fmt.Sprintf("no room available for worker %s", w.FullName))
			continue
		}

		occupancy[target.ID]++
		actions = append(actions, RepairAction{
			WorkerID: w.ID,
			RoomID:   target.ID,
			DormID:   target.DormID,
		})
	}
	return actions, errs
}
