// Package schedule provides the record types extracted from a UQAM course schedule page
// and the text normalizers shared by the extraction pipeline.
//
// A Group is one section of a course with its seat count, instructors and meeting
// periods. Periods carry ISO dates produced by NormalizeDate from the French date text
// of the page, and an optional Location produced by ParseLocation from the
// "classroom | campus" cell. All values are built once per extraction and never mutated.
package schedule
