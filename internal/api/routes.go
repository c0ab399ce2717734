package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/filter"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/pfrederiksen/uqam-horaire/internal/scraper"
)

// RequestIDHeader carries the id of each request
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// NewRouter builds the gin engine with all routes
func NewRouter(fetcher GroupFetcher) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	h := &handler{fetcher: fetcher}
	router.GET("/", h.placeholder)
	router.GET("/healthz", h.health)
	router.GET("/courses/:symbol/:term/:program/groups", h.groups)

	return router
}

// RequestID reuses the caller's X-Request-ID or assigns a new uuid
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs each request once it completes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		logger.RecordTiming("api.request", duration)
		logger.Debug("HTTP request", logger.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": duration.Milliseconds(),
			"request_id":  c.GetString(requestIDKey),
		})
	}
}

type handler struct {
	fetcher GroupFetcher
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func (h *handler) placeholder(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"test": "value"})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) groups(c *gin.Context) {
	crs, err := courseFromParams(c)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	flt, err := filterFromQuery(c)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.fetcher.FetchGroups(c.Request.Context(), crs)
	if err != nil {
		h.fail(c, http.StatusBadGateway, err)
		return
	}

	c.JSON(http.StatusOK, &scraper.Result{
		Groups:   flt.Apply(result.Groups),
		Failures: result.Failures,
	})
}

// filterFromQuery reads repeatable day, teacher, campus and type parameters
// and an optional min_places
func filterFromQuery(c *gin.Context) (*filter.Filter, error) {
	f := &filter.Filter{
		Days:     c.QueryArray("day"),
		Teachers: c.QueryArray("teacher"),
		Campuses: c.QueryArray("campus"),
		Types:    c.QueryArray("type"),
	}

	if v := c.Query("min_places"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, errors.New("invalid min_places: " + strconv.Quote(v))
		}
		f.MinPlaces = uint32(n)
	}

	return f, nil
}

func (h *handler) fail(c *gin.Context, status int, err error) {
	logger.Warn("Request failed", logger.Fields{
		"path":       c.Request.URL.Path,
		"status":     status,
		"request_id": c.GetString(requestIDKey),
	}, err)
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     err.Error(),
		RequestID: c.GetString(requestIDKey),
	})
}

func courseFromParams(c *gin.Context) (course.Course, error) {
	year, semester, err := course.ParseTerm(c.Param("term"))
	if err != nil {
		return course.Course{}, err
	}

	program, err := strconv.Atoi(c.Param("program"))
	if err != nil {
		return course.Course{}, errors.New("invalid program code: " + strconv.Quote(c.Param("program")))
	}

	crs := course.New(c.Param("symbol"), year, semester, program)
	if err := crs.Validate(); err != nil {
		return course.Course{}, err
	}
	return crs, nil
}
