// Package course identifies a course offering on the UQAM schedule site.
//
// A Course combines the course symbol (e.g. INF1070), the academic year, the semester
// and the program code. Together they address one schedule page:
//
//	https://etudier.uqam.ca/wshoraire/cours/<symbol>/<year><semester>/<program>
//
// Semesters use the site's numeric codes: 1 winter (hiver), 2 summer (été) and 3 fall
// (automne).
package course
