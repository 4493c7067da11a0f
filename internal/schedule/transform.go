// Package schedule turns raw pickup records from the municipal API into a
// classified, date-grouped view, and wraps the lookup with a cache fallback
// so the last fetched schedule stays available offline.
package schedule

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Category maps a waste type key to its display color and icon.
type Category struct {
	Key   string
	Color string
	Icon  string
}

// Categories is the classification table. Order matters: the first key whose
// lowercase form is contained in the waste type name wins, so specific keys
// (colored glass, packaging variants) are listed before their generic
// superstrings.
var Categories = []Category{
	{"Restavfall", "#1a1a1a", "🗑️"},
	{"Matavfall", "#16a34a", "🥬"},
	{"Plast- och pappersförpackningar", "#2563eb", "📦"},
	{"Plast/Papp", "#2563eb", "📦"},
	{"Trädgårdsavfall", "#65a30d", "🌿"},
	{"Tidningar", "#7c3aed", "📰"},
	{"Glasförpackningar ofärgade", "#06b6d4", "🫙"},
	{"Glasförpackningar färgade", "#0d9488", "🫙"},
	{"Glas", "#0891b2", "🫙"},
	{"Metallförpackningar", "#d97706", "🥫"},
	{"Metall", "#d97706", "🥫"},
	{"Elavfall", "#dc2626", "🔌"},
	{"Textil", "#ec4899", "👕"},
}

// Fallback for waste types that match no category.
const (
	DefaultColor = "#6b7280"
	DefaultIcon  = "♻️"
)

// Classify resolves the color and icon for a waste type name by
// case-insensitive substring match against Categories. It is total: unknown
// types get the default pair.
func Classify(wasteType string) (color, icon string) {
	lower := strings.ToLower(wasteType)
	for _, c := range Categories {
		if strings.Contains(lower, strings.ToLower(c.Key)) {
			return c.Color, c.Icon
		}
	}
	return DefaultColor, DefaultIcon
}

// DaysRemaining computes the signed calendar-day distance from now to date.
// Both instants are truncated to local midnight first, so the time of day of
// either argument never changes the result.
func DaysRemaining(date, now time.Time) int {
	d := midnight(date)
	n := midnight(now)
	return int(math.Ceil(d.Sub(n).Hours() / 24))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// pickupLayouts are tried in order against the upstream's ISO-ish dates.
var pickupLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePickupTime parses an upstream pickup instant in the given location.
// Unparseable values yield the zero time, which sorts first and renders as
// long past rather than failing the whole schedule.
func ParsePickupTime(value string, loc *time.Location) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range pickupLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Parse maps each raw record to an Item (1:1, no filtering) and sorts the
// result ascending by pickup instant. The sort is stable: records with
// identical instants keep their input order.
func Parse(services []RhService, now time.Time) []Item {
	items := make([]Item, 0, len(services))
	for _, svc := range services {
		pickup := ParsePickupTime(svc.NextWastePickup, now.Location())
		color, icon := Classify(svc.WasteType)

		binSize := ""
		if svc.BinType != nil {
			binSize = fmt.Sprintf("%v %s", svc.BinType.Size, svc.BinType.Unit)
		}

		items = append(items, Item{
			WasteType:     svc.WasteType,
			NextPickup:    pickup,
			DaysRemaining: DaysRemaining(pickup, now),
			Frequency:     svc.WastePickupFrequency,
			BinSize:       binSize,
			Color:         color,
			Icon:          icon,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].NextPickup.Before(items[j].NextPickup)
	})
	return items
}

// GroupByDate partitions items by calendar date. Each group takes its
// daysRemaining from its first member and keeps the members in the order
// they arrived; groups are sorted ascending by date.
func GroupByDate(items []Item) []Group {
	var order []string
	byDate := make(map[string][]Item)

	for _, item := range items {
		key := item.NextPickup.Format("2006-01-02")
		if _, ok := byDate[key]; !ok {
			order = append(order, key)
		}
		byDate[key] = append(byDate[key], item)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		members := byDate[key]
		date, _ := time.Parse("2006-01-02", key)
		groups = append(groups, Group{
			Date:          date,
			DateString:    key,
			DaysRemaining: members[0].DaysRemaining,
			Items:         members,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].DateString < groups[j].DateString
	})
	return groups
}
