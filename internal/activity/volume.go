package activity

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseFirstRep returns the first rep count of a rep specification such as
// "10,8,6" or "12/10". Anything that does not parse as an integer yields 0.
func ParseFirstRep(spec string) int {
	first := strings.Replace(spec, "/", ",", -1)
	if i := strings.IndexByte(first, ','); i >= 0 {
		first = first[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0
	}
	return n
}

// VolumeLoad is sets * first rep count * weight.
func VolumeLoad(sets int, reps string, weight float64) float64 {
	return float64(sets) * float64(ParseFirstRep(reps)) * weight
}

// VolumePoint is the total volume of a single workout.
type VolumePoint struct {
	Date   string  `json:"date"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

// VolumeSeries returns per-workout volume for workouts on or after since,
// oldest first.
func VolumeSeries(workouts []Workout, since time.Time) []VolumePoint {
	cutoff := Midnight(since)
	sorted := make([]Workout, 0, len(workouts))
	for _, w := range workouts {
		if DateIn(w.Date, cutoff.Location()).Before(cutoff) {
			continue
		}
		sorted = append(sorted, w)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	points := make([]VolumePoint, len(sorted))
	for i, w := range sorted {
		points[i] = VolumePoint{
			Date:   w.Date.Format("2006-01-02"),
			Name:   w.Name,
			Volume: w.TotalVolume(),
		}
	}
	return points
}
