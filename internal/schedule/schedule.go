package schedule

// Group represents one scheduled section of a course
type Group struct {
	ID              uint32   `json:"id"`
	AvailablePlaces uint32   `json:"available_places"`
	Teachers        []string `json:"teachers"`
	Periods         []Period `json:"periods"`
	Exams           []Exam   `json:"exams"` // Always nil until exam rows are parsed
}

// Period represents one recurring meeting pattern of a group
type Period struct {
	Day       string    `json:"day"`
	StartDate string    `json:"start_date"` // YYYY-MM-DD
	EndDate   string    `json:"end_date"`   // YYYY-MM-DD
	StartTime string    `json:"start_time"` // As published, e.g. "13h30"
	EndTime   string    `json:"end_time"`
	Location  *Location `json:"location"`
	Type      string    `json:"type"`
}

// Location is where a period takes place. Campus is always set.
type Location struct {
	Classroom *string `json:"classroom"`
	Campus    string  `json:"campus"`
}

// Exam is reserved for exam sessions, which are not extracted yet
type Exam struct{}

// NewGroup creates a Group with empty teacher and period lists so that both
// serialize as [] rather than null.
func NewGroup(id uint32) *Group {
	return &Group{
		ID:       id,
		Teachers: make([]string, 0),
		Periods:  make([]Period, 0),
	}
}
