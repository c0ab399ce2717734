package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
)

const lineSelector = "div.ligne"

// Positions of the lines inside a group fragment. Line 0 is the section header.
const (
	lineID = iota + 1
	lineAvailability
	lineTeachers
	linePeriods

	minLines = linePeriods + 1
)

// ParseGroup extracts one group from its div.groupe fragment. Only the selected
// fields are read; the id is always read.
func ParseGroup(fragment *goquery.Selection, fields Fields) (*schedule.Group, error) {
	lines := fragment.Find(lineSelector)
	if lines.Length() < minLines {
		return nil, fmt.Errorf("%w: group has %d lines, want at least %d",
			schedule.ErrStructureMismatch, lines.Length(), minLines)
	}

	id, err := parseGroupID(lines.Eq(lineID))
	if err != nil {
		return nil, fmt.Errorf("group id: %w", err)
	}
	group := schedule.NewGroup(id)

	if fields.Has(FieldAvailability) {
		places, err := parseAvailablePlaces(lines.Eq(lineAvailability))
		if err != nil {
			return nil, fmt.Errorf("group %d available places: %w", id, err)
		}
		group.AvailablePlaces = places
	}

	if fields.Has(FieldTeachers) {
		group.Teachers = parseTeachers(lines.Eq(lineTeachers))
	}

	if fields.Has(FieldPeriods) {
		periods, err := parsePeriods(lines.Eq(linePeriods))
		if err != nil {
			return nil, fmt.Errorf("group %d periods: %w", id, err)
		}
		group.Periods = periods
	}

	return group, nil
}

// parseGroupID reads the number from a heading such as "Groupe 20"
func parseGroupID(line *goquery.Selection) (uint32, error) {
	heading := line.Find("h3").First()
	if heading.Length() == 0 {
		return 0, fmt.Errorf("%w: no h3 heading", schedule.ErrStructureMismatch)
	}
	return parseUintToken(heading.Text(), 1)
}

// parseAvailablePlaces reads the number from a span such as "23 places"
func parseAvailablePlaces(line *goquery.Selection) (uint32, error) {
	span := line.Find("span").First()
	if span.Length() == 0 {
		return 0, fmt.Errorf("%w: no span", schedule.ErrStructureMismatch)
	}
	return parseUintToken(span.Text(), 0)
}

// parseTeachers keeps the order and duplicates of the list
func parseTeachers(line *goquery.Selection) []string {
	teachers := make([]string, 0)
	line.Find("td > ul > li").Each(func(i int, li *goquery.Selection) {
		teachers = append(teachers, strings.TrimSpace(li.Text()))
	})
	return teachers
}

// parsePeriods parses every row of the periods table after the header row
func parsePeriods(line *goquery.Selection) ([]schedule.Period, error) {
	rows := line.Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: periods table has no header row", schedule.ErrStructureMismatch)
	}

	periods := make([]schedule.Period, 0, rows.Length()-1)
	for i := 1; i < rows.Length(); i++ {
		period, err := parsePeriod(rows.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		periods = append(periods, period)
	}
	return periods, nil
}

// parseUintToken parses the whitespace-separated token at index as an unsigned integer
func parseUintToken(text string, index int) (uint32, error) {
	tokens := strings.Fields(text)
	if index >= len(tokens) {
		return 0, fmt.Errorf("%w: no token %d in %q", schedule.ErrMalformedNumericField, index, strings.TrimSpace(text))
	}

	n, err := strconv.ParseUint(tokens[index], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned integer", schedule.ErrMalformedNumericField, tokens[index])
	}
	return uint32(n), nil
}
