package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByPage   SortOrder = "page"
	SortByID     SortOrder = "id"
	SortByPlaces SortOrder = "places"
)

// ParseSortOrder validates a sort order name
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortByPage, SortByID, SortByPlaces:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'page', 'id' or 'places')", s)
	}
}

// sortGroups sorts groups in place. SortByPage keeps document order.
func sortGroups(groups []*schedule.Group, order SortOrder) {
	switch order {
	case SortByID:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].ID < groups[j].ID
		})
	case SortByPlaces:
		sort.SliceStable(groups, func(i, j int) bool {
			if groups[i].AvailablePlaces != groups[j].AvailablePlaces {
				return groups[i].AvailablePlaces > groups[j].AvailablePlaces
			}
			// Equal places, lower group number first
			return groups[i].ID < groups[j].ID
		})
	}
}
