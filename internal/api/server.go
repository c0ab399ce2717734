package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/pfrederiksen/uqam-horaire/internal/scraper"
)

const shutdownTimeout = 10 * time.Second

// GroupFetcher fetches and extracts the groups of one course
type GroupFetcher interface {
	FetchGroups(ctx context.Context, c course.Course) (*scraper.Result, error)
}

// Server holds the state for the HTTP server
type Server struct {
	addr   string
	router *gin.Engine
	http   *http.Server
}

// NewServer creates a server listening on addr
func NewServer(addr string, fetcher GroupFetcher) *Server {
	return &Server{
		addr:   addr,
		router: NewRouter(fetcher),
	}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * scraper.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.Fields{"addr": s.addr})
		serverErrors <- s.http.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	logger.Info("HTTP server stopped", nil)
	return nil
}
