package schedule

import "strings"

const locationSeparator = "|"

// ParseLocation splits a "classroom | campus" cell into a Location.
//
//	""                             -> nil
//	"Campus Centre-Ville"          -> campus only
//	"B-1234 | Campus Centre-Ville" -> classroom and campus
//	" | Campus Centre-Ville"       -> campus only
//
// Cells with more than two segments return nil; see IsAmbiguousLocation.
func ParseLocation(text string) *Location {
	segments := locationSegments(text)

	switch len(segments) {
	case 1:
		return &Location{Campus: segments[0]}
	case 2:
		loc := &Location{Campus: segments[1]}
		if segments[0] != "" {
			classroom := segments[0]
			loc.Classroom = &classroom
		}
		return loc
	default:
		return nil
	}
}

// IsAmbiguousLocation reports whether a location cell has more than two segments.
// Such cells are dropped by ParseLocation until their meaning is known.
func IsAmbiguousLocation(text string) bool {
	return len(locationSegments(text)) > 2
}

func locationSegments(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	segments := strings.Split(text, locationSeparator)
	for i, s := range segments {
		segments[i] = strings.TrimSpace(s)
	}
	return segments
}
