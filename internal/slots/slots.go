// Package slots derives bookable times for a day.
package slots

// Catalog is the fixed daily schedule of half-hour slots.
var Catalog = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

// Available returns the catalog minus every booked time, in catalog order.
// booked holds the times of confirmed appointments on a single date.
func Available(booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}
	out := make([]string, 0, len(Catalog))
	for _, t := range Catalog {
		if _, ok := taken[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
