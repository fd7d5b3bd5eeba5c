// internal/domain/pricing/zones.go
package pricing

import "strings"

// Zone is the shipping-zone bucket a destination country falls into.
type Zone string

const (
	ZoneDomestic      Zone = "domestic"
	ZoneNear          Zone = "near"
	ZoneInternational Zone = "international"
)

// countryAliases maps common spelled-out names to ISO-3166 alpha-2 codes.
// Classification is case-insensitive; anything not recognized keeps its
// uppercased form and lands in the international zone.
var countryAliases = map[string]string{
	"UNITED STATES":            "US",
	"UNITED STATES OF AMERICA": "US",
	"USA":                      "US",
	"U.S.":                     "US",
	"U.S.A.":                   "US",
	"PHILIPPINES":              "PH",
	"THE PHILIPPINES":          "PH",
	"CANADA":                   "CA",
	"UNITED KINGDOM":           "GB",
	"GREAT BRITAIN":            "GB",
	"UK":                       "GB",
	"GERMANY":                  "DE",
	"FRANCE":                   "FR",
	"SPAIN":                    "ES",
	"ITALY":                    "IT",
	"NETHERLANDS":              "NL",
	"THE NETHERLANDS":          "NL",
	"BELGIUM":                  "BE",
	"AUSTRIA":                  "AT",
	"PORTUGAL":                 "PT",
	"IRELAND":                  "IE",
	"SWEDEN":                   "SE",
	"DENMARK":                  "DK",
	"FINLAND":                  "FI",
	"POLAND":                   "PL",
	"GREECE":                   "GR",
	"CZECHIA":                  "CZ",
	"CZECH REPUBLIC":           "CZ",
}

// euCountries is the fixed EU country list priced as the near zone.
var euCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true,
	"CZ": true, "DK": true, "EE": true, "FI": true, "FR": true,
	"DE": true, "GR": true, "HU": true, "IE": true, "IT": true,
	"LV": true, "LT": true, "LU": true, "MT": true, "NL": true,
	"PL": true, "PT": true, "RO": true, "SK": true, "SI": true,
	"ES": true, "SE": true,
}

// NormalizeCountry resolves name variants to a canonical country code.
func NormalizeCountry(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if code, ok := countryAliases[c]; ok {
		return code
	}
	return c
}

// Classify buckets a destination country into a shipping zone.
func Classify(country string) Zone {
	switch code := NormalizeCountry(country); {
	case code == "US" || code == "PH":
		return ZoneDomestic
	case code == "CA" || euCountries[code]:
		return ZoneNear
	default:
		return ZoneInternational
	}
}

// IsPhilippines reports whether the destination is a PH alias. PH shipments
// use a flat rate and skip per-item shipping fees.
func IsPhilippines(country string) bool {
	return NormalizeCountry(country) == "PH"
}
