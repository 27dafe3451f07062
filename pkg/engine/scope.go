package engine

import "fmt"

// Scope is one bounded sub-range of the iteration domain, e.g. a 20-year
// birth window. Order across scopes is significant and deterministic.
type Scope struct {
	Label     string
	StartYear int
	EndYear   int
}

// YearScopes enumerates consecutive year windows of the given width covering
// [first, last]. The final window is clipped to last.
func YearScopes(first, last, width int) []Scope {
	if width <= 0 || last < first {
		return nil
	}

	var scopes []Scope
	for start := first; start <= last; start += width {
		end := start + width - 1
		if end > last {
			end = last
		}
		scopes = append(scopes, Scope{
			Label:     fmt.Sprintf("%d-%d", start, end),
			StartYear: start,
			EndYear:   end,
		})
	}
	return scopes
}
