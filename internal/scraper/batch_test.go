package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAll(t *testing.T) {
	body := fixturePage(t)

	var inFlight, maxInFlight atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}

		if strings.Contains(r.URL.Path, "/inf9999/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	courses := []course.Course{
		course.New("INF1070", 2022, course.Fall, 7316),
		course.New("INF9999", 2022, course.Fall, 7316),
		course.New("INF1120", 2022, course.Fall, 7316),
		course.New("INF2120", 2023, course.Winter, 7316),
	}

	results := newTestScraper(server).FetchAll(context.Background(), courses, 2)
	require.Len(t, results, len(courses))

	for i, r := range results {
		assert.Equal(t, courses[i], r.Course, "results keep input order")
		assert.Contains(t, r.URL, courses[i].Path())
	}

	assert.True(t, results[1].Failed())
	assert.ErrorIs(t, results[1].Err, ErrNetworkFailure)
	assert.NotEmpty(t, results[1].Error)
	assert.Nil(t, results[1].Result)

	for _, i := range []int{0, 2, 3} {
		require.False(t, results[i].Failed(), courses[i].Symbol)
		assert.Len(t, results[i].Result.Groups, 3)
	}

	assert.LessOrEqual(t, maxInFlight.Load(), int32(2))
}

func TestFetchAll_Empty(t *testing.T) {
	results := New().FetchAll(context.Background(), nil, 4)
	assert.Empty(t, results)
}
