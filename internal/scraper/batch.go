package scraper

import (
	"context"
	"time"

	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"golang.org/x/sync/errgroup"
)

// CourseResult is the outcome of fetching and extracting one course
type CourseResult struct {
	Course course.Course `json:"course"`
	URL    string        `json:"url"`
	Result *Result       `json:"result,omitempty"`
	Err    error         `json:"-"`
	Error  string        `json:"error,omitempty"`
}

// Failed reports whether the course could not be fetched or extracted
func (r CourseResult) Failed() bool {
	return r.Err != nil
}

// FetchAll fetches and extracts many courses, at most concurrency at a time.
// A failing course does not stop the others. Results are in the order of courses.
func (s *Scraper) FetchAll(ctx context.Context, courses []course.Course, concurrency int) []CourseResult {
	if concurrency < 1 {
		concurrency = 1
	}

	start := time.Now()
	results := make([]CourseResult, len(courses))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, c := range courses {
		i, c := i, c
		g.Go(func() error {
			res := CourseResult{Course: c, URL: s.URL(c)}

			result, err := s.FetchGroups(ctx, c)
			if err != nil {
				logger.Error("Course could not be extracted", logger.Fields{
					"course": c.Symbol,
					"term":   c.Term(),
				}, err)
				res.Err = err
				res.Error = err.Error()
			} else {
				res.Result = result
			}

			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}

	logger.SetGauge("batch.concurrency", float64(concurrency))
	logger.RecordTiming("batch.run", time.Since(start))
	logger.Info("Batch finished", logger.Fields{
		"courses":  len(courses),
		"failed":   failed,
		"duration": time.Since(start).String(),
	})

	return results
}
