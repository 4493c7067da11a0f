package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alvasen/sophamtning-ale/internal/i18n"
)

func TestFormatDate(t *testing.T) {
	// 2025-06-02 is a Monday.
	d := time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "måndag 2 juni 2025", FormatDate(d))

	d = time.Date(2025, 12, 25, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "torsdag 25 december 2025", FormatDate(d))
}

func TestFormatShortDate(t *testing.T) {
	d := time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "mån 2 juni", FormatShortDate(d))

	d = time.Date(2025, 1, 15, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "ons 15 jan", FormatShortDate(d))
}

// Exact boundary values for the days-remaining label.
func TestDaysRemainingText(t *testing.T) {
	assert.Equal(t, "Passerad", DaysRemainingText(-1))
	assert.Equal(t, "Idag", DaysRemainingText(0))
	assert.Equal(t, "Imorgon", DaysRemainingText(1))
	assert.Equal(t, "5 dagar", DaysRemainingText(5))
}

func TestDaysRemainingTextLocalized(t *testing.T) {
	loc := i18n.Localizer("en")
	assert.Equal(t, "Passed", DaysRemainingTextIn(loc, -1))
	assert.Equal(t, "Today", DaysRemainingTextIn(loc, 0))
	assert.Equal(t, "Tomorrow", DaysRemainingTextIn(loc, 1))
	assert.Equal(t, "5 days", DaysRemainingTextIn(loc, 5))
}
