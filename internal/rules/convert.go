package rules

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
}

// parseDate reads the date formats found in the source sheets
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// backendDateTime is the datetime format the backend stores and returns
const backendDateTime = "2006-01-02 15:04:05"

// parseAmount reads "1.234,50", "25,00", "25.00" or "€ 25"
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.NewReplacer("€", "", "EUR", "", " ", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// splitList splits a comma separated cell into trimmed, non-empty items
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// lookup returns a pointer to the mapped id, nil when unmapped
func lookup(table map[string]int, key string) *int {
	if id, ok := table[strings.TrimSpace(key)]; ok {
		return &id
	}
	return nil
}

func denied(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "nein")
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
