package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Cell positions in a periods table row
const (
	cellDay = iota
	cellDates
	cellTimes
	cellLocation
	cellType

	periodCells
)

// timeSeparator joins the words of a time range ("De&nbsp;13h30&nbsp;à&nbsp;16h30")
const timeSeparator = "\u00a0"

const minTimeTokens = 4

// parsePeriod extracts one period from a data row of the periods table
func parsePeriod(row *goquery.Selection) (schedule.Period, error) {
	cells := row.Find("td")
	if cells.Length() != periodCells {
		return schedule.Period{}, fmt.Errorf("%w: row has %d cells, want %d",
			schedule.ErrStructureMismatch, cells.Length(), periodCells)
	}

	startDate, endDate, err := parseDateRange(cellLines(cells.Eq(cellDates)))
	if err != nil {
		return schedule.Period{}, err
	}

	startTime, endTime, err := parseTimeRange(cellText(cells.Eq(cellTimes)))
	if err != nil {
		return schedule.Period{}, err
	}

	locationText := cellText(cells.Eq(cellLocation))
	if schedule.IsAmbiguousLocation(locationText) {
		logger.Debug("Dropping location with more than two segments", logger.Fields{"location": locationText})
	}

	return schedule.Period{
		Day:       strings.TrimSpace(cellText(cells.Eq(cellDay))),
		StartDate: startDate,
		EndDate:   endDate,
		StartTime: startTime,
		EndTime:   endTime,
		Location:  schedule.ParseLocation(locationText),
		Type:      strings.TrimSpace(cellText(cells.Eq(cellType))),
	}, nil
}

// parseDateRange normalizes the two lines of "Du 5 septembre 2022<br>au 12 décembre 2022"
func parseDateRange(lines []string) (string, string, error) {
	if len(lines) != 2 {
		return "", "", fmt.Errorf("%w: date range has %d lines, want 2", schedule.ErrStructureMismatch, len(lines))
	}

	start, err := schedule.ParseDateToken(lines[0])
	if err != nil {
		return "", "", fmt.Errorf("start date: %w", err)
	}
	end, err := schedule.ParseDateToken(lines[1])
	if err != nil {
		return "", "", fmt.Errorf("end date: %w", err)
	}
	return start, end, nil
}

// parseTimeRange returns tokens 1 and 3 of a time range split on non-breaking spaces
func parseTimeRange(text string) (string, string, error) {
	tokens := strings.Split(text, timeSeparator)
	if len(tokens) < minTimeTokens {
		return "", "", fmt.Errorf("%w: %q has %d tokens, want %d",
			schedule.ErrMalformedTimeField, strings.TrimSpace(text), len(tokens), minTimeTokens)
	}
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	return tokens[1], tokens[3], nil
}

// cellContent returns the first link of a cell, or the cell itself when it has none
func cellContent(cell *goquery.Selection) *goquery.Selection {
	if link := cell.Find("a").First(); link.Length() > 0 {
		return link
	}
	return cell
}

// cellText returns the untrimmed text of a cell's content
func cellText(cell *goquery.Selection) string {
	return cellContent(cell).Text()
}

// cellLines splits a cell's content on <br> elements. Blank lines are dropped.
func cellLines(cell *goquery.Selection) []string {
	var (
		lines   []string
		current strings.Builder
	)

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			current.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range cellContent(cell).Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	flush()

	return lines
}
