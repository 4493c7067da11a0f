package schedule

import "time"

// BinType describes the subscribed bin for a pickup service.
type BinType struct {
	Size float64 `json:"Size"`
	Unit string  `json:"Unit"`
}

// RhService is a raw pickup record as returned by the EDP upstream.
// Field names follow the upstream wire format.
type RhService struct {
	NextWastePickup      string   `json:"NextWastePickup"`
	WasteType            string   `json:"WasteType"`
	WastePickupFrequency string   `json:"WastePickupFrequency"`
	BinType              *BinType `json:"BinType,omitempty"`
}

// Response is the upstream schedule lookup payload.
type Response struct {
	RhServices []RhService `json:"RhServices"`
}

// Item is one classified pickup derived 1:1 from an RhService.
// Items are immutable and replaced wholesale on every refresh.
type Item struct {
	WasteType     string    `json:"wasteType"`
	NextPickup    time.Time `json:"nextPickup"`
	DaysRemaining int       `json:"daysRemaining"`
	Frequency     string    `json:"frequency"`
	BinSize       string    `json:"binSize"`
	Color         string    `json:"color"`
	Icon          string    `json:"icon"`
}

// Group collects the items sharing one calendar date.
type Group struct {
	Date          time.Time `json:"date"`
	DateString    string    `json:"dateString"`
	DaysRemaining int       `json:"daysRemaining"`
	Items         []Item    `json:"items"`
}
