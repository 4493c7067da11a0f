// Package i18n holds the translation bundle for all user-facing text.
// Swedish is the default application language; English is available for
// API callers via Accept-Language.
package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message IDs. Every ID must exist in every locale file
// (enforced by TestLocaleIntegrity).
const (
	MsgDaysPast     = "DaysPast"
	MsgDaysToday    = "DaysToday"
	MsgDaysTomorrow = "DaysTomorrow"
	MsgDaysCount    = "DaysCount"

	MsgStaleAdvisory      = "StaleAdvisory"
	MsgErrScheduleFetch   = "ErrScheduleFetch"
	MsgErrSearchFailed    = "ErrSearchFailed"
	MsgErrUnexpected      = "ErrUnexpected"
	MsgErrAddressRequired = "ErrAddressRequired"

	MsgReminderEveningTitle = "ReminderEveningTitle"
	MsgReminderEveningBody  = "ReminderEveningBody"
	MsgReminderMorningTitle = "ReminderMorningTitle"
	MsgReminderMorningBody  = "ReminderMorningBody"
)

// DefaultLang is the language used when the caller expresses no preference.
const DefaultLang = "sv"

var bundle *goi18n.Bundle

func init() {
	bundle = goi18n.NewBundle(language.Swedish)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		// The locales are embedded; a failure here is a build defect.
		panic("i18n: reading embedded locales: " + err.Error())
	}
	for _, entry := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+entry.Name()); err != nil {
			panic("i18n: loading locale " + entry.Name() + ": " + err.Error())
		}
	}
}

// Localizer returns a localizer for the given language preference list,
// falling back to Swedish. Accepts Accept-Language style values.
func Localizer(langs ...string) *goi18n.Localizer {
	return goi18n.NewLocalizer(bundle, append(langs, DefaultLang)...)
}

// Default returns the Swedish localizer.
func Default() *goi18n.Localizer {
	return Localizer()
}

// T resolves a message ID with optional template data. Lookup failures fall
// back to the ID itself so a missing translation never breaks a response.
func T(loc *goi18n.Localizer, id string, data map[string]any) string {
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("i18n: missing translation", "id", id, "error", err)
		return id
	}
	return msg
}
