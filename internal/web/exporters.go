package web

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/alvasen/sophamtning-ale/internal/schedule"
)

const icalProdID = "-//alvasen//sophamtning-ale//SV"

// ExportICS renders the schedule as an iCalendar feed with one all-day
// event per pickup. UIDs are deterministic so re-imports update rather
// than duplicate.
func ExportICS(view *schedule.View) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icalProdID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(view.FetchedAt.UTC())

	for _, item := range view.Items {
		if item.NextPickup.IsZero() {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, eventUID(view.Address, item))
		event.Props.SetText(ical.PropSummary,
			fmt.Sprintf("%s %s", item.Icon, item.WasteType))
		event.Props.SetText(ical.PropDescription, eventDescription(item))
		event.Props.SetText(ical.PropLocation, view.Address)
		event.Props.Set(stamp)

		start := ical.NewProp(ical.PropDateTimeStart)
		start.SetDate(item.NextPickup)
		event.Props.Set(start)

		end := ical.NewProp(ical.PropDateTimeEnd)
		end.SetDate(item.NextPickup.AddDate(0, 0, 1))
		event.Props.Set(end)

		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("web: encoding calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportCSV writes the schedule as CSV, one row per pickup.
func ExportCSV(view *schedule.View) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Datum", "Avfallstyp", "Frekvens", "Kärl"}); err != nil {
		return nil, fmt.Errorf("web: writing csv header: %w", err)
	}
	for _, item := range view.Items {
		date := ""
		if !item.NextPickup.IsZero() {
			date = item.NextPickup.Format(time.DateOnly)
		}
		if err := w.Write([]string{date, item.WasteType, item.Frequency, item.BinSize}); err != nil {
			return nil, fmt.Errorf("web: writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("web: flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func eventUID(address string, item schedule.Item) string {
	input := fmt.Sprintf("%s|%s|%s", address, item.WasteType,
		item.NextPickup.Format(time.DateOnly))
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x@sophamtning-ale", hash[:12])
}

func eventDescription(item schedule.Item) string {
	desc := item.WasteType
	if item.Frequency != "" {
		desc += "\n" + item.Frequency
	}
	if item.BinSize != "" {
		desc += "\n" + item.BinSize
	}
	return desc
}
