package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const tomlConfig = `
host = "horaire.example.test"
concurrency = 2
requests_per_second = 1.5
timeout = "10s"
max_retries = 5
fields = ["places"]

[[courses]]
symbol = "inf1070"
year = 2022
semester = "fall"
program = 7316

[[courses]]
symbol = "INF1120"
year = 2023
semester = 1
program = 7316
`

const yamlConfig = `
concurrency: 3
log_level: debug
courses:
  - symbol: inf1070
    year: 2022
    semester: automne
    program: 7316
  - symbol: mat1060
    year: 2023
    semester: 2
    program: 7416
`

func TestLoad_TOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "courses.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, "horaire.example.test", cfg.Host)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 1.5, cfg.RequestsPerSecond)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel, "defaults are kept")

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)

	require.Len(t, cfg.Courses, 2)
	assert.Equal(t, course.New("INF1070", 2022, course.Fall, 7316), cfg.Courses[0])
	assert.Equal(t, course.Winter, cfg.Courses[1].Semester)
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "courses.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, course.DefaultHost, cfg.Host)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.LogLevel)

	require.Len(t, cfg.Courses, 2)
	assert.Equal(t, "INF1070", cfg.Courses[0].Symbol)
	assert.Equal(t, course.Fall, cfg.Courses[0].Semester)
	assert.Equal(t, course.Summer, cfg.Courses[1].Semester)
	assert.Equal(t, 7416, cfg.Courses[1].ProgramCode)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvHost, "mirror.example.test")
	t.Setenv(EnvConcurrency, "8")
	t.Setenv(EnvRPS, "0")
	t.Setenv(EnvTimeout, "1m")
	t.Setenv(EnvMaxRetries, "0")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeFile(t, "courses.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, "mirror.example.test", cfg.Host)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 0.0, cfg.RequestsPerSecond)
	assert.Equal(t, "1m", cfg.Timeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		env     map[string]string
	}{
		{name: "unsupported extension", file: "courses.json", content: `{}`},
		{name: "malformed toml", file: "courses.toml", content: `concurrency = `},
		{name: "no courses", file: "courses.toml", content: `concurrency = 2`},
		{name: "bad semester", file: "courses.yaml", content: "courses:\n  - {symbol: inf1070, year: 2022, semester: spring, program: 7316}\n"},
		{name: "bad course", file: "courses.yaml", content: "courses:\n  - {symbol: inf1070, year: 2022, semester: 3, program: 0}\n"},
		{name: "zero concurrency", file: "courses.yaml", content: "concurrency: 0\ncourses:\n  - {symbol: inf1070, year: 2022, semester: 3, program: 7316}\n"},
		{name: "bad timeout", file: "courses.toml", content: tomlConfig, env: map[string]string{EnvTimeout: "soon"}},
		{name: "bad env number", file: "courses.toml", content: tomlConfig, env: map[string]string{EnvConcurrency: "many"}},
		{name: "bad log level", file: "courses.toml", content: tomlConfig, env: map[string]string{EnvLogLevel: "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestScraperOptions(t *testing.T) {
	cfg, err := Load(writeFile(t, "courses.toml", tomlConfig))
	require.NoError(t, err)

	s := scraper.New(cfg.ScraperOptions()...)
	assert.Equal(t, "https://horaire.example.test/wshoraire/cours/inf1070/20223/7316", s.URL(cfg.Courses[0]))

	cfg.BaseURL = "http://127.0.0.1:8080/"
	s = scraper.New(cfg.ScraperOptions()...)
	assert.Equal(t, "http://127.0.0.1:8080/wshoraire/cours/inf1070/20223/7316", s.URL(cfg.Courses[0]))
}
