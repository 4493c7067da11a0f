package schedule

import (
	"fmt"
	"time"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/alvasen/sophamtning-ale/internal/i18n"
)

// Swedish calendar names, indexed by time.Month and time.Weekday.
var (
	monthNames = [...]string{
		"januari", "februari", "mars", "april", "maj", "juni",
		"juli", "augusti", "september", "oktober", "november", "december",
	}
	shortMonthNames = [...]string{
		"jan", "feb", "mars", "apr", "maj", "juni",
		"juli", "aug", "sep", "okt", "nov", "dec",
	}
	weekdayNames = [...]string{
		"söndag", "måndag", "tisdag", "onsdag", "torsdag", "fredag", "lördag",
	}
	shortWeekdayNames = [...]string{
		"sön", "mån", "tis", "ons", "tors", "fre", "lör",
	}
)

// FormatDate renders a long-form Swedish date, e.g. "måndag 2 juni 2025".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d",
		weekdayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1], t.Year())
}

// FormatShortDate renders a short Swedish date, e.g. "mån 2 juni".
func FormatShortDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s",
		shortWeekdayNames[t.Weekday()], t.Day(), shortMonthNames[t.Month()-1])
}

// DaysRemainingTextIn renders the days-remaining label in the given locale.
// Boundaries: negative means the pickup passed, zero is today, one is
// tomorrow, everything else is a day count.
func DaysRemainingTextIn(loc *goi18n.Localizer, days int) string {
	switch {
	case days < 0:
		return i18n.T(loc, i18n.MsgDaysPast, nil)
	case days == 0:
		return i18n.T(loc, i18n.MsgDaysToday, nil)
	case days == 1:
		return i18n.T(loc, i18n.MsgDaysTomorrow, nil)
	default:
		return i18n.T(loc, i18n.MsgDaysCount, map[string]any{"Days": days})
	}
}

// DaysRemainingText renders the label in the default language.
func DaysRemainingText(days int) string {
	return DaysRemainingTextIn(i18n.Default(), days)
}
