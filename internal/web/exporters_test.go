package web

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvasen/sophamtning-ale/internal/schedule"
)

func TestExportICSEvents(t *testing.T) {
	view := &schedule.View{
		Address: "Storgatan 1 (Nödinge)",
		Items: []schedule.Item{
			{
				WasteType:  "Restavfall",
				NextPickup: time.Date(2025, 6, 4, 0, 0, 0, 0, time.Local),
				Frequency:  "Varannan vecka",
				BinSize:    "190 L",
				Icon:       "🗑️",
			},
			{
				WasteType:  "Matavfall",
				NextPickup: time.Date(2025, 6, 11, 0, 0, 0, 0, time.Local),
				Icon:       "🥬",
			},
		},
		FetchedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}

	data, err := ExportICS(view)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:"+icalProdID)
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250604")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250605")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250611")
	assert.Contains(t, out, "Restavfall")
	assert.Contains(t, out, "Varannan vecka")
	assert.Contains(t, out, "LOCATION:Storgatan 1 (Nödinge)")
}

func TestExportICSUIDsStableAndDistinct(t *testing.T) {
	item := schedule.Item{
		WasteType:  "Restavfall",
		NextPickup: time.Date(2025, 6, 4, 0, 0, 0, 0, time.Local),
	}
	uid := eventUID("Storgatan 1", item)
	assert.Equal(t, uid, eventUID("Storgatan 1", item), "same input, same uid")
	assert.NotEqual(t, uid, eventUID("Kungsgatan 2", item))

	other := item
	other.NextPickup = other.NextPickup.AddDate(0, 0, 14)
	assert.NotEqual(t, uid, eventUID("Storgatan 1", other))
}

func TestExportCSV(t *testing.T) {
	view := &schedule.View{
		Address: "Storgatan 1",
		Items: []schedule.Item{
			{
				WasteType:  "Restavfall",
				NextPickup: time.Date(2025, 6, 4, 0, 0, 0, 0, time.Local),
				Frequency:  "Varannan vecka",
				BinSize:    "190 L",
			},
			{WasteType: "Matavfall"},
		},
	}

	data, err := ExportCSV(view)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Datum,Avfallstyp,Frekvens,Kärl", lines[0])
	assert.Equal(t, "2025-06-04,Restavfall,Varannan vecka,190 L", lines[1])
	assert.Equal(t, ",Matavfall,,", lines[2])
}

func TestExportICSSkipsUnparsedDates(t *testing.T) {
	view := &schedule.View{
		Address:   "Storgatan 1",
		Items:     []schedule.Item{{WasteType: "Restavfall"}},
		FetchedAt: time.Now(),
	}

	data, err := ExportICS(view)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "BEGIN:VEVENT")
}
