package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
)

// TimeZone is the zone schedule times are published in
const TimeZone = "America/Montreal"

// vtimezone defines TimeZone with the current North American daylight saving rules
const vtimezone = "BEGIN:VTIMEZONE\r\n" +
	"TZID:" + TimeZone + "\r\n" +
	"BEGIN:DAYLIGHT\r\n" +
	"TZOFFSETFROM:-0500\r\n" +
	"TZOFFSETTO:-0400\r\n" +
	"TZNAME:EDT\r\n" +
	"DTSTART:20070311T020000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=2SU\r\n" +
	"END:DAYLIGHT\r\n" +
	"BEGIN:STANDARD\r\n" +
	"TZOFFSETFROM:-0400\r\n" +
	"TZOFFSETTO:-0500\r\n" +
	"TZNAME:EST\r\n" +
	"DTSTART:20071104T020000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=11;BYDAY=1SU\r\n" +
	"END:STANDARD\r\n" +
	"END:VTIMEZONE\r\n"

const (
	dateLayout  = "2006-01-02"
	localLayout = "20060102T150405"
)

// weekdays maps published French day names to weekdays
var weekdays = map[string]time.Weekday{
	"lundi":    time.Monday,
	"mardi":    time.Tuesday,
	"mercredi": time.Wednesday,
	"jeudi":    time.Thursday,
	"vendredi": time.Friday,
	"samedi":   time.Saturday,
	"dimanche": time.Sunday,
}

var byDay = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// Schedule is the extracted groups of one course
type Schedule struct {
	Name   string // Calendar label, e.g. "INF1070 20223"
	Groups []*schedule.Group
}

// GenerateICS generates an iCalendar (.ics) file with one weekly recurring event
// per period. Periods whose dates or times cannot be read are skipped.
func GenerateICS(name string, groups []*schedule.Group) string {
	return generate(name, []Schedule{{Name: name, Groups: groups}}, time.Now())
}

// GenerateBulkICS generates a single iCalendar file for several courses
func GenerateBulkICS(calendarName string, schedules []Schedule) string {
	return generate(calendarName, schedules, time.Now())
}

func generate(calendarName string, schedules []Schedule, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//UQAM Horaire//uqam-horaire//FR\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if calendarName != "" {
		fmt.Fprintf(&ics, "X-WR-CALNAME:%s\r\n", escapeICS(calendarName))
	}
	ics.WriteString(vtimezone)

	stamp := formatICSTime(now)
	skipped := 0
	for _, sch := range schedules {
		for _, g := range sch.Groups {
			for i, p := range g.Periods {
				ev, err := newEvent(p)
				if err != nil {
					skipped++
					logger.Debug("Skipping period in calendar", logger.Fields{
						"course": sch.Name,
						"group":  g.ID,
						"period": i,
						"error":  err.Error(),
					})
					continue
				}
				writeEvent(&ics, sch.Name, g, i, p, ev, stamp)
			}
		}
	}
	logger.AddCounter("calendar.skipped", int64(skipped))

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// event holds the resolved times of one period
type event struct {
	start time.Time
	end   time.Time
	until time.Time
	day   string
}

func newEvent(p schedule.Period) (event, error) {
	first, err := time.Parse(dateLayout, p.StartDate)
	if err != nil {
		return event{}, fmt.Errorf("invalid start date %q", p.StartDate)
	}
	last, err := time.Parse(dateLayout, p.EndDate)
	if err != nil {
		return event{}, fmt.Errorf("invalid end date %q", p.EndDate)
	}

	startH, startM, err := ParseClock(p.StartTime)
	if err != nil {
		return event{}, err
	}
	endH, endM, err := ParseClock(p.EndTime)
	if err != nil {
		return event{}, err
	}

	ev := event{}
	if wd, ok := weekdays[strings.ToLower(strings.TrimSpace(p.Day))]; ok {
		first = nextWeekday(first, wd)
		ev.day = byDay[wd]
	}
	if first.After(last) {
		return event{}, fmt.Errorf("no %s between %s and %s", p.Day, p.StartDate, p.EndDate)
	}

	ev.start = time.Date(first.Year(), first.Month(), first.Day(), startH, startM, 0, 0, time.UTC)
	ev.end = time.Date(first.Year(), first.Month(), first.Day(), endH, endM, 0, 0, time.UTC)
	if !ev.end.After(ev.start) {
		return event{}, fmt.Errorf("end time %q is not after start time %q", p.EndTime, p.StartTime)
	}
	ev.until = time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, time.UTC)

	return ev, nil
}

func writeEvent(ics *strings.Builder, name string, g *schedule.Group, index int, p schedule.Period, ev event, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	fmt.Fprintf(ics, "UID:%s-%d-%d-%s@uqam-horaire\r\n", strings.ToLower(uidSafe(name)), g.ID, index, ev.start.Format("20060102"))
	fmt.Fprintf(ics, "DTSTAMP:%s\r\n", stamp)

	// Local wall-clock times in the published zone
	fmt.Fprintf(ics, "DTSTART;TZID=%s:%s\r\n", TimeZone, ev.start.Format(localLayout))
	fmt.Fprintf(ics, "DTEND;TZID=%s:%s\r\n", TimeZone, ev.end.Format(localLayout))

	rrule := "RRULE:FREQ=WEEKLY;UNTIL=" + formatICSTime(ev.until)
	if ev.day != "" {
		rrule += ";BYDAY=" + ev.day
	}
	ics.WriteString(rrule + "\r\n")

	summary := fmt.Sprintf("%s gr. %02d", name, g.ID)
	if p.Type != "" {
		summary = fmt.Sprintf("%s - %s", summary, p.Type)
	}
	fmt.Fprintf(ics, "SUMMARY:%s\r\n", escapeICS(summary))

	if len(g.Teachers) > 0 {
		fmt.Fprintf(ics, "DESCRIPTION:%s\r\n", escapeICS(strings.Join(g.Teachers, "\n")))
	}
	if loc := formatLocation(p.Location); loc != "" {
		fmt.Fprintf(ics, "LOCATION:%s\r\n", escapeICS(loc))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// ParseClock reads published times such as "13h30", "9h" or "13:30"
func ParseClock(s string) (hour, minute int, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	sep := strings.IndexAny(s, "h:")
	if sep <= 0 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}

	hour, err = strconv.Atoi(s[:sep])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}

	if rest := s[sep+1:]; rest != "" {
		minute, err = strconv.Atoi(rest)
		if err != nil || minute < 0 || minute > 59 {
			return 0, 0, fmt.Errorf("invalid time %q", s)
		}
	}

	return hour, minute, nil
}

// nextWeekday returns the first date on or after t falling on wd
func nextWeekday(t time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset)
}

func formatLocation(loc *schedule.Location) string {
	if loc == nil {
		return ""
	}
	if loc.Classroom != nil {
		return fmt.Sprintf("%s, %s", *loc.Classroom, loc.Campus)
	}
	return loc.Campus
}

func uidSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '@' {
			return '-'
		}
		return r
	}, s)
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// RFC 5545 text escaping
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
