package stats

import (
	"sort"
	"time"

	"dorm-occupancy-backend/internal/model"
)

// TrendPoint is one day of the occupancy time series.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AgeBand is one fixed band of the age distribution.
type AgeBand struct {
	Range      string `json:"range"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// ReasonCount is one departure reason with its share of all exits.
type ReasonCount struct {
	Reason     string `json:"reason"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// MonthlyStat is one month of the rolling entries/exits series.
type MonthlyStat struct {
	Month     string `json:"month"`
	Entries   int    `json:"entries"`
	Exits     int    `json:"exits"`
	Occupancy int    `json:"occupancy"`
}

// EnhancedStats carries the trend-oriented dashboard blocks.
type EnhancedStats struct {
	WeeklyTrend         float64       `json:"weeklyTrend"`
	MonthlyTrend        float64       `json:"monthlyTrend"`
	AverageStayDuration int           `json:"averageStayDuration"`
	PeakOccupancyDate   string        `json:"peakOccupancyDate"`
	OccupancyTrend      []TrendPoint  `json:"occupancyTrend"`
	AgeDistribution     []AgeBand     `json:"ageDistribution"`
	DepartureReasons    []ReasonCount `json:"departureReasons"`
	MonthlyStats        []MonthlyStat `json:"monthlyStats"`
}

var ageBands = []struct {
	label    string
	min, max int
}{
	{"18-25", 18, 25},
	{"26-35", 26, 35},
	{"36-45", 36, 45},
	{"45+", 46, 1 << 30},
}

// Enhanced computes the trend statistics. The 6-month occupancy
// percentage divides by live room capacity, the same denominator the
// basic stats use.
func Enhanced(workers []model.Worker, rooms []model.Room, now time.Time) EnhancedStats {
	var active, inactive []model.Worker
	for _, w := range workers {
		if w.Status == model.StatusActive {
			active = append(active, w)
		} else {
			inactive = append(inactive, w)
		}
	}

	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)
	weeklyNew, monthlyNew := 0, 0
	for _, w := range workers {
		if !w.CreatedAt.Before(weekAgo) {
			weeklyNew++
		}
		if !w.CreatedAt.Before(monthAgo) {
			monthlyNew++
		}
	}

	var weeklyTrend, monthlyTrend float64
	if len(active) > 0 {
		weeklyTrend = round1(float64(weeklyNew) / float64(len(active)) * 100)
		monthlyTrend = round1(float64(monthlyNew) / float64(len(active)) * 100)
	}

	return EnhancedStats{
		WeeklyTrend:         weeklyTrend,
		MonthlyTrend:        monthlyTrend,
		AverageStayDuration: averageStayWithFallback(active, inactive, now),
		PeakOccupancyDate:   peakCheckInDate(workers),
		OccupancyTrend:      occupancySeries(workers, now),
		AgeDistribution:     AgeDistribution(active, now),
		DepartureReasons:    departureReasons(inactive),
		MonthlyStats:        monthlySeries(workers, rooms, now),
	}
}

// averageStayWithFallback averages the fixed stay durations of
// checked-out workers; with no exits yet it falls back to the elapsed
// stay of the active population.
func averageStayWithFallback(active, inactive []model.Worker, now time.Time) int {
	if len(inactive) > 0 {
		return meanStay(inactive)
	}
	if len(active) == 0 {
		return 0
	}
	sum := 0
	for _, w := range active {
		days := int(now.Sub(w.CheckInDate.Time).Hours() / 24)
		if days > 0 {
			sum += days
		}
	}
	return int(float64(sum)/float64(len(active)) + 0.5)
}

// peakCheckInDate finds the calendar day with the most worker
// creations.
func peakCheckInDate(workers []model.Worker) string {
	byDay := make(map[string]int)
	for _, w := range workers {
		if w.CreatedAt.IsZero() {
			continue
		}
		byDay[w.CreatedAt.Format("2006-01-02")]++
	}
	if len(byDay) == 0 {
		return "N/A"
	}

	best, bestCount := "", -1
	for day, count := range byDay {
		if count > bestCount || (count == bestCount && day < best) {
			best, bestCount = day, count
		}
	}
	return best
}

// occupancySeries counts, for each of the last 30 days, the workers
// present that day: checked in before the day ended and not checked
// out before it started.
func occupancySeries(workers []model.Worker, now time.Time) []TrendPoint {
	points := make([]TrendPoint, 0, 30)
	for i := 29; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		count := 0
		for _, w := range workers {
			if w.CheckInDate.Before(dayEnd) && (w.CheckOutDate == nil || !w.CheckOutDate.Before(dayStart)) {
				count++
			}
		}
		points = append(points, TrendPoint{Date: dayStart.Format("02/01"), Count: count})
	}
	return points
}

// AgeDistribution buckets the active population into the four fixed
// bands. Percentages are of the active count; all zeros when it is
// empty.
func AgeDistribution(active []model.Worker, now time.Time) []AgeBand {
	counts := make([]int, len(ageBands))
	for _, w := range active {
		age := w.Age(now)
		for i, b := range ageBands {
			if age >= b.min && age <= b.max {
				counts[i]++
				break
			}
		}
	}

	out := make([]AgeBand, len(ageBands))
	for i, b := range ageBands {
		out[i] = AgeBand{
			Range:      b.label,
			Count:      counts[i],
			Percentage: pct(counts[i], len(active)),
		}
	}
	return out
}

func departureReasons(inactive []model.Worker) []ReasonCount {
	counts := make(map[string]int)
	for _, w := range inactive {
		reason := w.ExitReason
		if reason == "" {
			reason = "Not specified"
		}
		counts[reason]++
	}

	out := make([]ReasonCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, ReasonCount{
			Reason:     reason,
			Count:      count,
			Percentage: pct(count, len(inactive)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// monthlySeries builds the 6-month rolling entries/exits/occupancy
// series, oldest month first.
func monthlySeries(workers []model.Worker, rooms []model.Room, now time.Time) []MonthlyStat {
	capacity := len(rooms) * model.RoomCapacity

	out := make([]MonthlyStat, 0, 6)
	for i := 5; i >= 0; i-- {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		nextMonth := monthStart.AddDate(0, 1, 0)

		entries, exits, present := 0, 0, 0
		for _, w := range workers {
			if !w.CreatedAt.Before(monthStart) && w.CreatedAt.Before(nextMonth) {
				entries++
			}
			if w.CheckOutDate != nil && !w.CheckOutDate.Before(monthStart) && w.CheckOutDate.Before(nextMonth) {
				exits++
			}
			if w.CheckInDate.Before(nextMonth) && (w.CheckOutDate == nil || !w.CheckOutDate.Before(monthStart)) {
				present++
			}
		}

		occupancy := pct(present, capacity)
		if occupancy > 100 {
			occupancy = 100
		}
		out = append(out, MonthlyStat{
			Month:     monthStart.Format("January"),
			Entries:   entries,
			Exits:     exits,
			Occupancy: occupancy,
		})
	}
	return out
}
