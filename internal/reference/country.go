// Package reference resolves row values against backend reference tables:
// countries and honorific prefixes.
package reference

import (
	"strings"
	"unicode/utf8"
)

// Countries maps ISO 3166 alpha-2 codes to backend country ids
type Countries map[string]int

// CountryProfile decides how a free-text country value becomes an id.
// The two profiles differ on misses and are kept apart on purpose.
type CountryProfile int

const (
	// ProfileStrict accepts ISO codes or a known German country name; a miss stays unresolved
	ProfileStrict CountryProfile = iota + 1
	// ProfileDefaultGermany resolves known names and falls back to Germany
	ProfileDefaultGermany
)

// Germany is the backend id used by ProfileDefaultGermany on a miss
const Germany = 1082

func (p CountryProfile) String() string {
	switch p {
	case ProfileStrict:
		return "strict"
	case ProfileDefaultGermany:
		return "default-germany"
	}
	return "unknown"
}

// Resolve returns the country id for value. ok is false when the value is
// unresolved; the id is never 0.
func (p CountryProfile) Resolve(value string, refs Countries) (id int, ok bool) {
	value = strings.TrimSpace(value)

	switch p {
	case ProfileStrict:
		if utf8.RuneCountInString(value) == 2 {
			id = refs[strings.ToUpper(value)]
		} else {
			id = strictNames[value]
		}
		return id, id > 0

	case ProfileDefaultGermany:
		if id = germanyNames[value]; id > 0 {
			return id, true
		}
		return Germany, true
	}
	return 0, false
}

var strictNames = map[string]int{
	"Deutschland":                  1082,
	"Belgien":                      1020,
	"Dänemark":                     1059,
	"Europäische Union":            1014,
	"Finnland":                     1075,
	"Frankreich":                   1076,
	"Irland":                       1105,
	"Italien":                      1107,
	"Kanada":                       1039,
	"Luxemburg":                    1126,
	"Österreich":                   1014,
	"Mexiko":                       1140,
	"Niederlande":                  1152,
	"Polen":                        1172,
	"Portugal":                     1173,
	"Schweden":                     1204,
	"Schweiz":                      1205,
	"Senegal":                      1188,
	"Singapur":                     1191,
	"Spanien":                      1198,
	"Vereinigte Arabische Emirate": 1225,
	"Vereinigte Staaten":           1228,
	"Vereinigtes Königreich":       1226,
}

var germanyNames = map[string]int{
	"Australien":                     1013,
	"Belgien":                        1020,
	"Deutschland":                    1082,
	"Großbritannien":                 1226,
	"Kanada":                         1039,
	"UK":                             1226,
	"Schweiz":                        1205,
	"Niederlande":                    1152,
	"Italien":                        1107,
	"Vereinigte Staaten":             1228,
	"USA":                            1228,
	"Norwegen":                       1161,
	"Israel":                         1106,
	"Schottland":                     1226,
	"Vereinigte Staaten von Amerika": 1228,
	"Spanien":                        1198,
	"Österreich":                     1014,
	"Niederlanden":                   1152,
	"Südafrika":                      1196,
	"Schweden":                       1204,
	"Malta":                          1134,
	"Rumänien":                       1176,
	"Irland":                         1105,
}
