package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
	"github.com/pfrederiksen/uqam-horaire/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeFetcher struct {
	result *scraper.Result
	err    error
	got    []course.Course
}

func (f *fakeFetcher) FetchGroups(_ context.Context, c course.Course) (*scraper.Result, error) {
	f.got = append(f.got, c)
	return f.result, f.err
}

func serve(t *testing.T, fetcher GroupFetcher, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	NewRouter(fetcher).ServeHTTP(w, req)
	return w
}

func TestPlaceholder(t *testing.T) {
	w := serve(t, &fakeFetcher{}, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"test":"value"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	w := serve(t, &fakeFetcher{}, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	w := serve(t, &fakeFetcher{}, "/healthz", nil)
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "new request id should be a uuid")

	existing := uuid.NewString()
	w = serve(t, &fakeFetcher{}, "/healthz", http.Header{RequestIDHeader: {existing}})
	assert.Equal(t, existing, w.Header().Get(RequestIDHeader))

	w = serve(t, &fakeFetcher{}, "/healthz", http.Header{RequestIDHeader: {"not-a-uuid"}})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestGroups(t *testing.T) {
	group := schedule.NewGroup(10)
	group.AvailablePlaces = 23
	group.Teachers = append(group.Teachers, "Privat, Jean")

	fetcher := &fakeFetcher{result: &scraper.Result{
		Groups:   []*schedule.Group{group},
		Failures: []scraper.Failure{{Index: 1, Err: fmt.Errorf("%w: 3 lines", schedule.ErrStructureMismatch)}},
	}}

	w := serve(t, fetcher, "/courses/inf1070/20223/7316/groups", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, fetcher.got, 1)
	assert.Equal(t, course.New("INF1070", 2022, course.Fall, 7316), fetcher.got[0])

	var body struct {
		Groups []struct {
			ID              uint32   `json:"id"`
			AvailablePlaces uint32   `json:"available_places"`
			Teachers        []string `json:"teachers"`
		} `json:"groups"`
		Failures []struct {
			Index int    `json:"index"`
			Error string `json:"error"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	require.Len(t, body.Groups, 1)
	assert.Equal(t, uint32(10), body.Groups[0].ID)
	assert.Equal(t, uint32(23), body.Groups[0].AvailablePlaces)
	assert.Equal(t, []string{"Privat, Jean"}, body.Groups[0].Teachers)

	require.Len(t, body.Failures, 1)
	assert.Equal(t, 1, body.Failures[0].Index)
	assert.Contains(t, body.Failures[0].Error, "3 lines")
}

func TestGroups_Filters(t *testing.T) {
	open := schedule.NewGroup(10)
	open.AvailablePlaces = 5
	open.Periods = append(open.Periods, schedule.Period{Day: "Lundi"})
	full := schedule.NewGroup(20)
	full.Periods = append(full.Periods, schedule.Period{Day: "Mardi"})

	fetcher := &fakeFetcher{result: &scraper.Result{
		Groups:   []*schedule.Group{open, full},
		Failures: []scraper.Failure{},
	}}

	tests := []struct {
		query string
		want  []uint32
	}{
		{"", []uint32{10, 20}},
		{"?min_places=1", []uint32{10}},
		{"?day=mardi", []uint32{20}},
		{"?day=lundi&day=mardi", []uint32{10, 20}},
		{"?day=jeudi", []uint32{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(t, fetcher, "/courses/inf1070/20223/7316/groups"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Groups []struct {
					ID uint32 `json:"id"`
				} `json:"groups"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			got := make([]uint32, 0, len(body.Groups))
			for _, g := range body.Groups {
				got = append(got, g.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	w := serve(t, fetcher, "/courses/inf1070/20223/7316/groups?min_places=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroups_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"short term", "/courses/inf1070/2022/7316/groups"},
		{"bad semester", "/courses/inf1070/20224/7316/groups"},
		{"bad year", "/courses/inf1070/abcd3/7316/groups"},
		{"bad program", "/courses/inf1070/20223/info/groups"},
		{"zero program", "/courses/inf1070/20223/0/groups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			w := serve(t, fetcher, tt.path, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, fetcher.got, "fetcher should not be called")

			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, w.Header().Get(RequestIDHeader), body.RequestID)
		})
	}
}

func TestGroups_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: connection refused", scraper.ErrNetworkFailure)}

	w := serve(t, fetcher, "/courses/inf1070/20223/7316/groups", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestGroups_WithScraper(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wshoraire/cours/inf1070/20223/7316", r.URL.Path)
		fmt.Fprint(w, `<html><body>
<div class="groupe">
  <div class="ligne">Groupe</div>
  <div class="ligne"><h3>Groupe 40</h3></div>
  <div class="ligne"><span>12 places</span></div>
  <div class="ligne"><ul></ul></div>
  <div class="ligne"><table><tr><th>Jour</th></tr></table></div>
</div>
</body></html>`)
	}))
	defer upstream.Close()

	sc := scraper.New(scraper.WithBaseURL(upstream.URL), scraper.WithRateLimit(0), scraper.WithMaxRetries(0))
	w := serve(t, sc, "/courses/INF1070/20223/7316/groups", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"groups": [{"id": 40, "available_places": 12, "teachers": [], "periods": [], "exams": null}],
		"failures": []
	}`, w.Body.String())
}

func TestServer_Run(t *testing.T) {
	srv := NewServer("127.0.0.1:0", &fakeFetcher{})
	assert.NotNil(t, srv.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
