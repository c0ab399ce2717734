// Package filter narrows extracted groups down to the ones a student can take.
//
// Criteria:
//   - Days (a group matches when one of its periods falls on one of the days)
//   - Teachers (case-insensitive substring of any teacher)
//   - Campuses (case-insensitive substring of any period's campus)
//   - Types (case-insensitive substring of any period's type, e.g. "labo")
//   - MinPlaces (available places)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Days = []string{"lundi", "mercredi"}
//	f.MinPlaces = 1
//
//	open := f.Apply(result.Groups)
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Filter represents group filtering criteria
type Filter struct {
	Days      []string `json:"days,omitempty"`
	Teachers  []string `json:"teachers,omitempty"`
	Campuses  []string `json:"campuses,omitempty"`
	Types     []string `json:"types,omitempty"`
	MinPlaces uint32   `json:"min_places,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all groups until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Days:     []string{},
		Teachers: []string{},
		Campuses: []string{},
		Types:    []string{},
	}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return len(f.Days) == 0 &&
		len(f.Teachers) == 0 &&
		len(f.Campuses) == 0 &&
		len(f.Types) == 0 &&
		f.MinPlaces == 0
}

// Matches checks if a group matches all active filter criteria.
// An empty filter matches all groups.
//
// Matching logic:
//   - Days: some period's day equals one of the days (accents and case ignored)
//   - Teachers: some teacher contains one of the names
//   - Campuses: some period's campus contains one of the campuses
//   - Types: some period's type contains one of the types
//   - MinPlaces: available places are at least MinPlaces
func (f *Filter) Matches(g *schedule.Group) bool {
	if f.IsEmpty() {
		return true
	}

	if g.AvailablePlaces < f.MinPlaces {
		return false
	}

	if len(f.Teachers) > 0 && !anyContains(g.Teachers, f.Teachers) {
		return false
	}

	if len(f.Days) > 0 {
		days := make([]string, 0, len(g.Periods))
		for _, p := range g.Periods {
			days = append(days, p.Day)
		}
		if !anyEqual(days, f.Days) {
			return false
		}
	}

	if len(f.Campuses) > 0 {
		campuses := make([]string, 0, len(g.Periods))
		for _, p := range g.Periods {
			if p.Location != nil {
				campuses = append(campuses, p.Location.Campus)
			}
		}
		if !anyContains(campuses, f.Campuses) {
			return false
		}
	}

	if len(f.Types) > 0 {
		types := make([]string, 0, len(g.Periods))
		for _, p := range g.Periods {
			types = append(types, p.Type)
		}
		if !anyContains(types, f.Types) {
			return false
		}
	}

	return true
}

// Apply returns the matching groups in their original order.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(groups []*schedule.Group) []*schedule.Group {
	if f.IsEmpty() {
		return groups
	}

	filtered := make([]*schedule.Group, 0, len(groups))
	for _, g := range groups {
		if f.Matches(g) {
			filtered = append(filtered, g)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "Days: lundi, mercredi | Min places: 1"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if len(f.Days) > 0 {
		parts = append(parts, fmt.Sprintf("Days: %s", strings.Join(f.Days, ", ")))
	}

	if len(f.Teachers) > 0 {
		parts = append(parts, fmt.Sprintf("Teachers: %s", strings.Join(f.Teachers, ", ")))
	}

	if len(f.Campuses) > 0 {
		parts = append(parts, fmt.Sprintf("Campuses: %s", strings.Join(f.Campuses, ", ")))
	}

	if len(f.Types) > 0 {
		parts = append(parts, fmt.Sprintf("Types: %s", strings.Join(f.Types, ", ")))
	}

	if f.MinPlaces > 0 {
		parts = append(parts, fmt.Sprintf("Min places: %d", f.MinPlaces))
	}

	return strings.Join(parts, " | ")
}

// fold lower-cases s and strips combining accents so that "Été" matches "ete"
func fold(s string) string {
	caser := cases.Lower(language.French)
	decomposed := norm.NFD.String(caser.String(strings.TrimSpace(s)))

	var b strings.Builder
	for _, r := range decomposed {
		if r >= 0x0300 && r <= 0x036f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func anyContains(values, needles []string) bool {
	for _, v := range values {
		fv := fold(v)
		for _, n := range needles {
			if strings.Contains(fv, fold(n)) {
				return true
			}
		}
	}
	return false
}

func anyEqual(values, needles []string) bool {
	for _, v := range values {
		fv := fold(v)
		for _, n := range needles {
			if fv == fold(n) {
				return true
			}
		}
	}
	return false
}
