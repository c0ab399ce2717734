package scraper

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
)

const groupSelector = "div.groupe"

// Fields selects which parts of a group are extracted
type Fields uint8

const (
	FieldID Fields = 1 << iota
	FieldAvailability
	FieldTeachers
	FieldPeriods

	AllFields = FieldID | FieldAvailability | FieldTeachers | FieldPeriods
)

var fieldNames = map[string]Fields{
	"id":       FieldID,
	"places":   FieldAvailability,
	"teachers": FieldTeachers,
	"periods":  FieldPeriods,
	"all":      AllFields,
}

// Has reports whether every field in x is selected
func (f Fields) Has(x Fields) bool {
	return f&x == x
}

// ParseFields combines field names ("id", "places", "teachers", "periods", "all").
// The id is always included. No names means AllFields.
func ParseFields(names []string) (Fields, error) {
	if len(names) == 0 {
		return AllFields, nil
	}

	f := FieldID
	for _, name := range names {
		field, ok := fieldNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown field: %q (want id, places, teachers, periods or all)", name)
		}
		f |= field
	}
	return f, nil
}

// Options controls extraction
type Options struct {
	// Fields selects what to extract. Zero means AllFields.
	Fields Fields
}

func (o Options) fields() Fields {
	if o.Fields == 0 {
		return AllFields
	}
	return o.Fields | FieldID
}

// Failure records a group that could not be parsed
type Failure struct {
	Index int   // Position of the group fragment on the page, starting at 0
	Err   error // Wraps one of the schedule.Err* values
}

// MarshalJSON encodes the failure with its error message
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	}{f.Index, f.Err.Error()})
}

// Result is the outcome of extracting one page
type Result struct {
	Groups   []*schedule.Group `json:"groups"`
	Failures []Failure         `json:"failures"`
}

// Partial reports whether some groups on the page failed to parse
func (r *Result) Partial() bool {
	return len(r.Failures) > 0
}

// Extract parses a schedule page and extracts its groups in document order.
// The returned error only reports unreadable markup; per-group problems are
// collected in Result.Failures.
func Extract(r io.Reader, opts Options) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return ExtractDocument(doc, opts), nil
}

// ExtractDocument extracts the groups of an already parsed page
func ExtractDocument(doc *goquery.Document, opts Options) *Result {
	fields := opts.fields()
	result := &Result{
		Groups:   make([]*schedule.Group, 0),
		Failures: make([]Failure, 0),
	}

	for i, fragment := range FindGroups(doc) {
		group, err := ParseGroup(fragment, fields)
		if err != nil {
			logger.Debug("Skipping unparsable group", logger.Fields{"index": i, "error": err.Error()})
			result.Failures = append(result.Failures, Failure{Index: i, Err: err})
			continue
		}
		result.Groups = append(result.Groups, group)
	}

	return result
}

// FindGroups returns the group fragments of a page in document order
func FindGroups(doc *goquery.Document) []*goquery.Selection {
	var fragments []*goquery.Selection
	doc.Find(groupSelector).Each(func(i int, sel *goquery.Selection) {
		fragments = append(fragments, sel)
	})
	return fragments
}
