package order

import (
	"math"
	"sort"
	"strings"
)

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// CountByStatus counts orders per known status. Every status is present,
// zero-filled, in display order. Unknown statuses are not counted.
func CountByStatus(orders []Order) []StatusCount {
	statuses := AllStatuses()
	counts := make([]StatusCount, len(statuses))
	for i, st := range statuses {
		counts[i] = StatusCount{Status: st}
	}
	for _, o := range orders {
		for i := range counts {
			if o.Status.Is(counts[i].Status) {
				counts[i].Count++
				break
			}
		}
	}
	return counts
}

// CountWithStatus counts orders whose status matches, ignoring case.
func CountWithStatus(orders []Order, status Status) int {
	n := 0
	for _, o := range orders {
		if o.Status.Is(status) {
			n++
		}
	}
	return n
}

// FilterByStatus keeps orders whose status matches, ignoring case, in the
// order given.
func FilterByStatus(orders []Order, status Status) []Order {
	out := make([]Order, 0)
	for _, o := range orders {
		if o.Status.Is(status) {
			out = append(out, o)
		}
	}
	return out
}

// PieSlice is one segment of the status pie chart.
type PieSlice struct {
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

// StatusPie returns one slice per status with its share of the total,
// rounded to one decimal place. An empty input yields zero percentages.
func StatusPie(orders []Order) []PieSlice {
	counts := CountByStatus(orders)
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	slices := make([]PieSlice, len(counts))
	for i, c := range counts {
		slices[i] = PieSlice{Label: string(c.Status), Value: c.Count}
		if total > 0 {
			slices[i].Percent = math.Round(float64(c.Count)*1000/float64(total)) / 10
		}
	}
	return slices
}

// BarPoint is one bar of a bar chart.
type BarPoint struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// OrdersByOwner counts orders per owner, sorted by owner name.
func OrdersByOwner(orders []Order) []BarPoint {
	return group(orders, func(o Order) string {
		return strings.TrimSpace(o.Owner)
	})
}

// OrdersByDate counts orders per order date, oldest first.
func OrdersByDate(orders []Order) []BarPoint {
	return group(orders, func(o Order) string {
		return NormalizeDate(o.OrderDate)
	})
}

func group(orders []Order, key func(Order) string) []BarPoint {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[key(o)]++
	}
	points := make([]BarPoint, 0, len(counts))
	for label, n := range counts {
		points = append(points, BarPoint{Label: label, Value: n})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Label < points[j].Label
	})
	return points
}
