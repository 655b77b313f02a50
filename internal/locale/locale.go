// Package locale resolves the local timezone, its country and the mains
// frequency used by the hum filter.
package locale

import (
	"strings"
	"time"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultMainsHz is used whenever the country cannot be resolved.
const DefaultMainsHz = 50

// Locale describes where the tool is running.
type Locale struct {
	Timezone string         // IANA name, "UTC" when unknown
	Country  string         // empty when unknown
	MainsHz  int            // 50 or 60
	Location *time.Location // never nil
}

// Detect resolves the runtime timezone. It never fails: anything it
// cannot determine falls back to UTC and 50Hz.
func Detect() Locale {
	name, err := tzlocal.RuntimeTZ()
	if err != nil || name == "" {
		return ForTimezone("UTC")
	}
	return ForTimezone(name)
}

// ForTimezone builds a Locale for an IANA timezone name.
func ForTimezone(timezone string) Locale {
	l := Locale{
		Timezone: timezone,
		MainsHz:  DefaultMainsHz,
		Location: time.UTC,
	}
	if loc, err := time.LoadLocation(timezone); err == nil {
		l.Location = loc
	}

	// UTC/GMT have no country association
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return l
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return l
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return l
	}
	l.Country = country
	l.MainsHz = MainsFrequency(country)
	return l
}

// Format renders t in the locale's timezone.
func (l Locale) Format(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.In(l.Location).Format("2006-01-02 15:04:05")
}

// MainsFrequency returns 60 for countries on 60Hz mains and 50 otherwise.
// Japan is split by region; the 50Hz east is the more populous half.
func MainsFrequency(country string) int {
	if sixtyHz[country] {
		return 60
	}
	return DefaultMainsHz
}

// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var sixtyHz = map[string]bool{
	"United States": true, "Canada": true, "Mexico": true,
	"Belize": true, "Costa Rica": true, "El Salvador": true, "Guatemala": true,
	"Honduras": true, "Nicaragua": true, "Panama": true,
	"Bahamas": true, "Barbados": true, "Cayman Islands": true, "Cuba": true,
	"Dominican Republic": true, "Haiti": true, "Jamaica": true, "Puerto Rico": true,
	"Trinidad and Tobago": true, "U.S. Virgin Islands": true,
	"Brazil": true, "Colombia": true, "Ecuador": true, "Guyana": true,
	"Peru": true, "Suriname": true, "Venezuela": true,
	"South Korea": true, "Taiwan": true, "Philippines": true, "Saudi Arabia": true,
	"Guam": true, "American Samoa": true, "Marshall Islands": true,
	"Micronesia": true, "Palau": true,
}
