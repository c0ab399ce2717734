package course

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultHost serves the public schedule pages
	DefaultHost = "etudier.uqam.ca"

	schedulePath = "/wshoraire/cours"
)

// Semester is the site's numeric semester code
type Semester int

const (
	Winter Semester = 1
	Summer Semester = 2
	Fall   Semester = 3
)

// semesterNames maps accepted spellings, English and French, to semesters
var semesterNames = map[string]Semester{
	"1":       Winter,
	"winter":  Winter,
	"hiver":   Winter,
	"h":       Winter,
	"2":       Summer,
	"summer":  Summer,
	"été":     Summer,
	"ete":     Summer,
	"e":       Summer,
	"3":       Fall,
	"fall":    Fall,
	"autumn":  Fall,
	"automne": Fall,
	"a":       Fall,
}

// ParseSemester accepts a numeric code or an English or French semester name
func ParseSemester(s string) (Semester, error) {
	sem, ok := semesterNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid semester: %q (want winter, summer, fall or 1-3)", s)
	}
	return sem, nil
}

// Valid reports whether s is one of the three known semester codes
func (s Semester) Valid() bool {
	return s >= Winter && s <= Fall
}

func (s Semester) String() string {
	switch s {
	case Winter:
		return "winter"
	case Summer:
		return "summer"
	case Fall:
		return "fall"
	default:
		return fmt.Sprintf("Semester(%d)", int(s))
	}
}

// UnmarshalText lets configuration files spell semesters by name
func (s *Semester) UnmarshalText(text []byte) error {
	sem, err := ParseSemester(string(text))
	if err != nil {
		return err
	}
	*s = sem
	return nil
}

// MarshalText writes the semester name
func (s Semester) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid semester: %d", int(s))
	}
	return []byte(s.String()), nil
}

// Course identifies one course offering for one semester and program
type Course struct {
	Symbol      string   `json:"symbol" toml:"symbol" yaml:"symbol"`
	Year        int      `json:"year" toml:"year" yaml:"year"`
	Semester    Semester `json:"semester" toml:"semester" yaml:"semester"`
	ProgramCode int      `json:"program" toml:"program" yaml:"program"`
}

// New creates a Course, normalizing the symbol to upper case
func New(symbol string, year int, semester Semester, programCode int) Course {
	return Course{
		Symbol:      strings.ToUpper(strings.TrimSpace(symbol)),
		Year:        year,
		Semester:    semester,
		ProgramCode: programCode,
	}
}

// Validate checks that every part of the identifier can be put in a URL
func (c Course) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("course symbol is required")
	}
	if strings.ContainsAny(c.Symbol, "/?# ") {
		return fmt.Errorf("invalid course symbol: %q", c.Symbol)
	}
	if c.Year < 1000 || c.Year > 9999 {
		return fmt.Errorf("invalid year: %d", c.Year)
	}
	if !c.Semester.Valid() {
		return fmt.Errorf("invalid semester: %d", int(c.Semester))
	}
	if c.ProgramCode <= 0 {
		return fmt.Errorf("invalid program code: %d", c.ProgramCode)
	}
	return nil
}

// Term returns the year and semester code as used in URLs, e.g. "20223"
func (c Course) Term() string {
	return fmt.Sprintf("%d%d", c.Year, int(c.Semester))
}

// Path returns the schedule page path relative to the host
func (c Course) Path() string {
	return fmt.Sprintf("%s/%s/%s/%d", schedulePath, strings.ToLower(c.Symbol), c.Term(), c.ProgramCode)
}

// URL returns the schedule page URL on host. An empty host means DefaultHost.
func (c Course) URL(host string) string {
	if host == "" {
		host = DefaultHost
	}
	return "https://" + host + c.Path()
}

func (c Course) String() string {
	return fmt.Sprintf("%s %s (program %d)", c.Symbol, c.Term(), c.ProgramCode)
}

// ParseTerm splits a term such as "20223" into its year and semester
func ParseTerm(term string) (int, Semester, error) {
	if len(term) != 5 {
		return 0, 0, fmt.Errorf("invalid term: %q (want YYYYS, e.g. 20223)", term)
	}

	year, err := strconv.Atoi(term[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid term year: %q", term)
	}

	sem, err := ParseSemester(term[4:])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid term semester: %q", term)
	}

	return year, sem, nil
}
