// Package logger provides structured JSON logging and metrics tracking for uqam-horaire.
//
// The logger supports multiple log levels (DEBUG, INFO, WARN, ERROR) and writes one JSON
// object per line. The CLI sends logs to stderr so that extracted schedules on stdout
// stay machine readable.
//
// Metrics tracking includes counters (incrementing values), gauges (point-in-time values)
// and timings (duration measurements) with aggregated statistics.
//
// Example usage:
//
//	logger.Info("Fetched schedule page", logger.Fields{
//	    "course": "INF1070",
//	    "bytes":  48213,
//	})
//
//	logger.Warn("Group skipped", logger.Fields{"index": 3}, err)
//
//	logger.IncrCounter("groups.parsed")
//	logger.RecordTiming("scraper.fetch", duration)
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel converts a level name such as "debug" or "WARN" to a Level
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if level == "WARNING" {
		level = LevelWarn
	}
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("invalid log level: %q (want debug, info, warn or error)", s)
	}
	return level, nil
}

// Logger provides structured logging. It is safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	minLevel Level
	output   io.Writer
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(LevelInfo, os.Stderr)
)

// New creates a new logger with the specified minimum log level and output destination.
// Messages below the minimum level are discarded.
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		minLevel: level,
		output:   output,
	}
}

// SetDefault replaces the package-level logger used by Debug, Info, Warn and Error
func SetDefault(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Default returns the package-level logger
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// log writes a structured log entry
func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    fields,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if marshalErr != nil {
		// Fields that cannot be encoded still produce a readable line
		fmt.Fprintf(l.output, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}

	fmt.Fprintln(l.output, string(data))
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level Level) bool {
	return levelRank[level] >= levelRank[l.minLevel]
}

// Debug logs detailed diagnostic information
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs general operational information
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a problem that does not stop the current operation, such as a group
// that could not be parsed or a fetch that will be retried. err may be nil.
func (l *Logger) Warn(message string, fields Fields, err error) {
	l.log(LevelWarn, message, fields, err)
}

// Error logs a failure that stops the current operation
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Package-level convenience functions using the default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	Default().Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	Default().Info(message, fields)
}

// Warn logs a warning with the default logger
func Warn(message string, fields Fields, err error) {
	Default().Warn(message, fields, err)
}

// Error logs an error with the default logger
func Error(message string, fields Fields, err error) {
	Default().Error(message, fields, err)
}

// Metrics tracks counters, gauges and timings. All operations are thread-safe.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// TimingStats summarizes the durations recorded under one name
type TimingStats struct {
	Count   int           `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
}

// Snapshot is a point-in-time copy of all metrics
type Snapshot struct {
	Counters map[string]int64       `json:"counters"`
	Gauges   map[string]float64     `json:"gauges"`
	Timings  map[string]TimingStats `json:"timings"`
}

var defaultMetrics = NewMetrics()

// NewMetrics creates a new metrics tracker with empty counters, gauges, and timings.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

// IncrCounter increments a counter by 1
func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter increments a counter by delta
func (m *Metrics) AddCounter(name string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
}

// SetGauge sets a gauge, overwriting any previous value
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTiming records one duration measurement
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], duration)
}

// GetSnapshot returns a deep copy of all metrics, safe to use while metrics keep changing
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timings:  make(map[string]TimingStats, len(m.timings)),
	}

	for k, v := range m.counters {
		snapshot.Counters[k] = v
	}
	for k, v := range m.gauges {
		snapshot.Gauges[k] = v
	}

	for name, durations := range m.timings {
		if len(durations) == 0 {
			continue
		}

		stats := TimingStats{
			Count: len(durations),
			Min:   durations[0],
			Max:   durations[0],
		}
		for _, d := range durations {
			stats.Total += d
			if d < stats.Min {
				stats.Min = d
			}
			if d > stats.Max {
				stats.Max = d
			}
		}
		stats.Average = stats.Total / time.Duration(stats.Count)

		snapshot.Timings[name] = stats
	}

	return snapshot
}

// Reset clears every metric
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timings = make(map[string][]time.Duration)
}

// Package-level metrics functions using the default metrics tracker

// IncrCounter increments a counter on the default metrics tracker
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// AddCounter adds delta to a counter on the default metrics tracker
func AddCounter(name string, delta int64) {
	defaultMetrics.AddCounter(name, delta)
}

// SetGauge sets a gauge on the default metrics tracker
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// GetMetricsSnapshot returns a snapshot of the default metrics tracker
func GetMetricsSnapshot() Snapshot {
	return defaultMetrics.GetSnapshot()
}

// ResetMetrics clears the default metrics tracker
func ResetMetrics() {
	defaultMetrics.Reset()
}
