// Package scraper fetches UQAM course schedule pages and extracts their groups.
//
// Extraction is a pure transformation of one page: Extract finds every group fragment
// (div.groupe), splits it into its lines (div.ligne) and turns the periods table into
// schedule.Period values. A group that cannot be parsed is reported as a Failure with
// its position on the page; the other groups are still returned.
//
// Fetching is handled by Scraper, which adds a client timeout, retries with exponential
// backoff, a shared rate limit and a short-lived page cache. FetchAll runs many courses
// concurrently.
package scraper
