package fetcher

import "strings"

// Stats summarizes a set of locations.
type Stats struct {
	Total     int            `json:"total"`
	Countries int            `json:"countries"`
	ByCountry map[string]int `json:"by_country"`
}

// Summarize counts locations and distinct country codes. Codes compare
// case-insensitively; empty codes are not a country.
func Summarize(locations []Location) Stats {
	byCountry := make(map[string]int)
	for _, l := range locations {
		cc := strings.ToUpper(strings.TrimSpace(l.CountryCode))
		if cc == "" {
			continue
		}
		byCountry[cc]++
	}
	return Stats{
		Total:     len(locations),
		Countries: len(byCountry),
		ByCountry: byCountry,
	}
}
