// Package mains works out the local electrical mains frequency, which sets
// where hum shows up in a recording's spectrum.
package mains

import (
	"strings"
	"sync"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Supported mains frequencies in Hz
const (
	Hz50 = 50
	Hz60 = 60
)

// Detection records how a mains frequency was chosen
type Detection struct {
	Hz       int
	Timezone string // IANA zone consulted, empty when none was found
	Country  string // Country the zone maps to, empty when unknown
}

// Guessed reports whether no country could be tied to the result, so the
// 50 Hz default was used.
func (d Detection) Guessed() bool {
	return d.Country == ""
}

// Detect maps the runtime timezone to a mains frequency. Anything that cannot
// be resolved to a country falls back to 50 Hz, the more common standard.
func Detect() Detection {
	zone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Hz: Hz50}
	}
	return ForTimezone(zone)
}

// ForTimezone maps an IANA timezone name to a mains frequency.
func ForTimezone(zone string) Detection {
	d := Detection{Hz: Hz50, Timezone: zone}

	// Zones with no country association
	if zone == "" || zone == "UTC" || zone == "GMT" || strings.HasPrefix(zone, "Etc/") {
		return d
	}

	countries, err := countryMap()
	if err != nil {
		return d
	}
	country, err := countries.GetCountry(zone)
	if err != nil {
		return d
	}

	d.Country = country
	d.Hz = forCountry(country)
	return d
}

// Resolve returns hz when it is a valid mains frequency, otherwise the
// detected local frequency.
func Resolve(hz float64) float64 {
	if hz == Hz50 || hz == Hz60 {
		return hz
	}
	return float64(Detect().Hz)
}

var countryMap = sync.OnceValues(tz.NewTimezoneCountryMap)

// forCountry defaults to 50 Hz. Japan is split by region; the more populous
// Tokyo side runs at 50 Hz.
func forCountry(country string) int {
	if sixtyHertz[country] {
		return Hz60
	}
	return Hz50
}

// sixtyHertz lists the countries on 60 Hz mains.
// See https://en.wikipedia.org/wiki/Mains_electricity_by_country
var sixtyHertz = map[string]bool{
	"United States": true, "Canada": true, "Mexico": true,

	"Belize": true, "Costa Rica": true, "El Salvador": true, "Guatemala": true,
	"Honduras": true, "Nicaragua": true, "Panama": true,

	"Bahamas": true, "Barbados": true, "Cayman Islands": true, "Cuba": true,
	"Dominican Republic": true, "Haiti": true, "Jamaica": true, "Puerto Rico": true,
	"Trinidad and Tobago": true, "U.S. Virgin Islands": true,

	// Brazil mixes both; 60 Hz predominates
	"Brazil": true, "Colombia": true, "Ecuador": true, "Guyana": true,
	"Peru": true, "Suriname": true, "Venezuela": true,

	"South Korea": true, "Taiwan": true, "Philippines": true, "Saudi Arabia": true,

	"Guam": true, "American Samoa": true, "Marshall Islands": true,
	"Micronesia": true, "Palau": true,
}
