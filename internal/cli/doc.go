// Package cli implements the command-line interface for uqam-horaire.
//
// The cli package provides the Cobra-based commands that fetch UQAM schedule pages
// (groups, batch), extract local pages (parse) and serve schedules over HTTP (serve).
// Results are written as JSON, text or iCalendar. Logs go to stderr so that stdout
// only carries results.
package cli
