package localcache

import (
	"fmt"
	"time"

	"dorm-occupancy-backend/internal/model"
)

// The sample set is deterministic: fixed ids, names, dates and
// occupancy counts, so fallback behavior is reproducible and the
// occupancy counters agree with the seeded active workers.

var seedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seedDorms() []model.Dorm {
	return []model.Dorm{
		{ID: "dorm_male", Name: model.GenderMale, LocalizedName: "ذكور", CreatedAt: seedTime, UpdatedAt: seedTime},
		{ID: "dorm_female", Name: model.GenderFemale, LocalizedName: "إناث", CreatedAt: seedTime, UpdatedAt: seedTime},
	}
}

// Occupancy per room id; every other seeded room starts empty.
var seedOccupancy = map[string]int{
	"room_male_1":   1,
	"room_male_2":   1,
	"room_male_3":   1,
	"room_female_2": 1,
	"room_female_3": 1,
}

func seedRooms() []model.Room {
	var rooms []model.Room
	for _, dorm := range []string{"dorm_male", "dorm_female"} {
		suffix := "male"
		if dorm == "dorm_female" {
			suffix = "female"
		}
		for i := 1; i <= 10; i++ {
			id := fmt.Sprintf("room_%s_%d", suffix, i)
			rooms = append(rooms, model.Room{
				ID:               id,
				DormID:           dorm,
				RoomNumber:       i,
				Capacity:         model.RoomCapacity,
				CurrentOccupancy: seedOccupancy[id],
				CreatedAt:        seedTime,
				UpdatedAt:        seedTime,
			})
		}
	}
	return rooms
}

func seedWorkers() []model.Worker {
	day := func(d int) model.Date {
		return model.NewDate(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC))
	}
	checkout := day(25)

	return []model.Worker{
		{
			ID: "worker_1", FullName: "Ahmed Mohamed Ali", NationalID: "12345678",
			Phone: "0512345678", BirthYear: 1990, DormID: "dorm_male", RoomID: "room_male_1",
			CheckInDate: day(15), Status: model.StatusActive,
			CreatedAt: day(15).Time, UpdatedAt: seedTime,
		},
		{
			ID: "worker_2", FullName: "Fatima Khalid Saad", NationalID: "87654321",
			Phone: "0687654321", BirthYear: 1985, DormID: "dorm_female", RoomID: "room_female_1",
			CheckInDate: day(10), CheckOutDate: &checkout, ExitReason: "End of contract",
			Status: model.StatusInactive, StayDurationDays: 15,
			CreatedAt: day(10).Time, UpdatedAt: seedTime,
		},
		{
			ID: "worker_3", FullName: "Omar Hassan", NationalID: "11223344",
			Phone: "0511223344", BirthYear: 1992, DormID: "dorm_male", RoomID: "room_male_2",
			CheckInDate: day(20), Status: model.StatusActive,
			CreatedAt: day(20).Time, UpdatedAt: seedTime,
		},
		{
			ID: "worker_4", FullName: "Maryam Al-Zahra", NationalID: "55667788",
			Phone: "0655667788", BirthYear: 1988, DormID: "dorm_female", RoomID: "room_female_2",
			CheckInDate: day(18), Status: model.StatusActive,
			CreatedAt: day(18).Time, UpdatedAt: seedTime,
		},
		{
			ID: "worker_5", FullName: "Youssef Ibrahim", NationalID: "99887766",
			Phone: "0599887766", BirthYear: 1995, DormID: "dorm_male", RoomID: "room_male_3",
			CheckInDate: day(22), Status: model.StatusActive,
			CreatedAt: day(22).Time, UpdatedAt: seedTime,
		},
		{
			ID: "worker_6", FullName: "Aisha Salem", NationalID: "33445566",
			Phone: "0633445566", BirthYear: 1993, DormID: "dorm_female", RoomID: "room_female_3",
			CheckInDate: day(25), Status: model.StatusActive,
			CreatedAt: day(25).Time, UpdatedAt: seedTime,
		},
	}
}
