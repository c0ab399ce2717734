package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pfrederiksen/uqam-horaire/internal/calendar"
	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
	"github.com/pfrederiksen/uqam-horaire/internal/scraper"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
	FormatICS  OutputFormat = "ics"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'json', 'text' or 'ics')", s)
	}
}

// batchCalendarName labels the calendar of a batch run
const batchCalendarName = "uqam-horaire"

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	groupStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// CourseOutput is the extracted schedule of one course or page
type CourseOutput struct {
	Name   string
	URL    string
	Result *scraper.Result
}

// WriteCourse writes one course. JSON output is the array of groups; failures
// are reported through logs and the exit code.
func WriteCourse(w io.Writer, out CourseOutput, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, out.Result.Groups)
	case FormatText:
		writeCourseText(w, out)
		fmt.Fprintf(w, "\nTotal: %d groups\n", len(out.Result.Groups))
		return nil
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(out.Name, out.Result.Groups))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteBatch writes the results of a batch run in course order
func WriteBatch(w io.Writer, results []scraper.CourseResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, results)
	case FormatText:
		return writeBatchText(w, results)
	case FormatICS:
		schedules := make([]calendar.Schedule, 0, len(results))
		for _, r := range results {
			if r.Failed() {
				continue
			}
			schedules = append(schedules, calendar.Schedule{Name: courseName(r.Course), Groups: r.Result.Groups})
		}
		_, err := io.WriteString(w, calendar.GenerateBulkICS(batchCalendarName, schedules))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeBatchText(w io.Writer, results []scraper.CourseResult) error {
	groups, failed := 0, 0
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if r.Failed() {
			failed++
			fmt.Fprintln(w, titleStyle.Render(courseName(r.Course)))
			fmt.Fprintf(w, "  %s\n", warningStyle.Render("Error: "+r.Error))
			continue
		}
		groups += len(r.Result.Groups)
		writeCourseText(w, CourseOutput{Name: courseName(r.Course), URL: r.URL, Result: r.Result})
	}

	fmt.Fprintf(w, "\nTotal: %d groups across %d courses", groups, len(results)-failed)
	if failed > 0 {
		fmt.Fprintf(w, " (%d failed)", failed)
	}
	fmt.Fprintln(w)
	return nil
}

// writeCourseText outputs one course as human-readable text
func writeCourseText(w io.Writer, out CourseOutput) {
	if out.Name != "" {
		fmt.Fprintln(w, titleStyle.Render(out.Name))
	}
	if out.URL != "" {
		fmt.Fprintln(w, mutedStyle.Render(out.URL))
	}

	if len(out.Result.Groups) == 0 && len(out.Result.Failures) == 0 {
		fmt.Fprintln(w, "No groups found.")
		return
	}

	for _, g := range out.Result.Groups {
		writeGroupText(w, g)
	}

	for _, f := range out.Result.Failures {
		fmt.Fprintf(w, "  %s\n", warningStyle.Render(fmt.Sprintf("Group #%d skipped: %v", f.Index+1, f.Err)))
	}
}

func writeGroupText(w io.Writer, g *schedule.Group) {
	fmt.Fprintf(w, "  %s  %d places\n", groupStyle.Render(fmt.Sprintf("Groupe %02d", g.ID)), g.AvailablePlaces)

	if len(g.Teachers) > 0 {
		fmt.Fprintf(w, "    Enseignants: %s\n", strings.Join(g.Teachers, "; "))
	}

	for _, p := range g.Periods {
		fmt.Fprintf(w, "    %-9s %s -> %s  %s-%s", p.Day, p.StartDate, p.EndDate, p.StartTime, p.EndTime)
		if loc := formatLocation(p.Location); loc != "" {
			fmt.Fprintf(w, "  %s", loc)
		}
		if p.Type != "" {
			fmt.Fprintf(w, "  %s", mutedStyle.Render(p.Type))
		}
		fmt.Fprintln(w)
	}
}

func formatLocation(loc *schedule.Location) string {
	if loc == nil {
		return ""
	}
	if loc.Classroom != nil {
		return *loc.Classroom + ", " + loc.Campus
	}
	return loc.Campus
}
