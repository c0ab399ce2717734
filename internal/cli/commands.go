package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/uqam-horaire/internal/api"
	"github.com/pfrederiksen/uqam-horaire/internal/config"
	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/filter"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/pfrederiksen/uqam-horaire/internal/scraper"
	"github.com/spf13/cobra"
)

// fetchFlags configure the scraper of the groups and serve commands
type fetchFlags struct {
	host       string
	baseURL    string
	timeout    time.Duration
	maxRetries uint64
	rps        float64
	fields     []string
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.host, "host", course.DefaultHost, "Schedule site host")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Full scheme and host, overrides --host")
	cmd.Flags().DurationVar(&f.timeout, "timeout", scraper.Timeout, "Timeout of a single HTTP request")
	cmd.Flags().Uint64Var(&f.maxRetries, "max-retries", scraper.DefaultMaxRetries, "Retries of a failed fetch")
	cmd.Flags().Float64Var(&f.rps, "rps", scraper.DefaultRequestsPerSecond, "Requests per second, 0 for no limit")
	cmd.Flags().StringSliceVar(&f.fields, "fields", nil, "Fields to extract: id, places, teachers, periods (default all)")
	cmd.Flags().MarkHidden("base-url")
}

func (f *fetchFlags) scraper() (*scraper.Scraper, error) {
	fields, err := scraper.ParseFields(f.fields)
	if err != nil {
		return nil, err
	}

	opts := []scraper.Option{
		scraper.WithHost(f.host),
		scraper.WithTimeout(f.timeout),
		scraper.WithMaxRetries(f.maxRetries),
		scraper.WithRateLimit(f.rps),
		scraper.WithFields(fields),
	}
	if f.baseURL != "" {
		opts = append(opts, scraper.WithBaseURL(f.baseURL))
	}
	return scraper.New(opts...), nil
}

// filterFlags narrow the groups that are written
type filterFlags struct {
	days      []string
	teachers  []string
	campuses  []string
	types     []string
	minPlaces uint32
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.days, "day", nil, "Keep groups meeting on one of these days, e.g. lundi,mercredi")
	cmd.Flags().StringSliceVar(&f.teachers, "teacher", nil, "Keep groups taught by one of these teachers")
	cmd.Flags().StringSliceVar(&f.campuses, "campus", nil, "Keep groups meeting on one of these campuses")
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "Keep groups with one of these period types, e.g. labo")
	cmd.Flags().Uint32Var(&f.minPlaces, "min-places", 0, "Keep groups with at least this many available places")
}

func (f *filterFlags) filter() *filter.Filter {
	return &filter.Filter{
		Days:      f.days,
		Teachers:  f.teachers,
		Campuses:  f.campuses,
		Types:     f.types,
		MinPlaces: f.minPlaces,
	}
}

// apply filters then sorts the groups of a result
func (f *filterFlags) apply(result *scraper.Result, order SortOrder) {
	flt := f.filter()
	if !flt.IsEmpty() {
		before := len(result.Groups)
		result.Groups = flt.Apply(result.Groups)
		logger.Debug("Filtered groups", logger.Fields{
			"filter": flt.String(),
			"before": before,
			"after":  len(result.Groups),
		})
	}
	sortGroups(result.Groups, order)
}

// outputFlags choose how results are written
type outputFlags struct {
	format string
	sort   string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "json", "Output format: json, text or ics")
	cmd.Flags().StringVar(&o.sort, "sort", "page", "Group order: page, id or places")
}

func (o *outputFlags) parse() (OutputFormat, SortOrder, error) {
	format, err := ParseFormat(o.format)
	if err != nil {
		return "", "", err
	}
	order, err := ParseSortOrder(o.sort)
	if err != nil {
		return "", "", err
	}
	return format, order, nil
}

func newGroupsCmd() *cobra.Command {
	var (
		fetch    fetchFlags
		out      outputFlags
		filters  filterFlags
		year     int
		semester string
		program  int
	)

	cmd := &cobra.Command{
		Use:   "groups SYMBOL",
		Short: "Fetch the groups of one course",
		Example: `  uqam-horaire groups INF1070 --year 2022 --semester fall --program 7316
  uqam-horaire groups inf1070 --year 2023 --semester hiver --program 7316 --format ics > inf1070.ics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := out.parse()
			if err != nil {
				return err
			}

			sem, err := course.ParseSemester(semester)
			if err != nil {
				return err
			}
			crs := course.New(args[0], year, sem, program)
			if err := crs.Validate(); err != nil {
				return err
			}

			sc, err := fetch.scraper()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := sc.FetchGroups(ctx, crs)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", crs, err)
			}

			filters.apply(result, order)
			output := CourseOutput{
				Name:   courseName(crs),
				URL:    sc.URL(crs),
				Result: result,
			}
			if err := WriteCourse(cmd.OutOrStdout(), output, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if result.Partial() {
				return errPartial
			}
			return nil
		},
	}

	fetch.register(cmd)
	out.register(cmd)
	filters.register(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "Year, e.g. 2022 (required)")
	cmd.Flags().StringVar(&semester, "semester", "", "Semester: winter, summer, fall, hiver, ete, automne or 1-3 (required)")
	cmd.Flags().IntVar(&program, "program", 0, "Program code, e.g. 7316 (required)")
	cmd.MarkFlagRequired("year")
	cmd.MarkFlagRequired("semester")
	cmd.MarkFlagRequired("program")

	return cmd
}

func newParseCmd() *cobra.Command {
	var (
		out     outputFlags
		filters filterFlags
		fields  []string
		name    string
	)

	cmd := &cobra.Command{
		Use:   "parse [FILE]",
		Short: "Extract groups from a saved schedule page",
		Long:  `Extract groups from a saved schedule page, or from stdin when FILE is omitted or "-".`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := out.parse()
			if err != nil {
				return err
			}
			f, err := scraper.ParseFields(fields)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			source := "stdin"
			if len(args) == 1 && args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening page: %w", err)
				}
				defer file.Close()
				r = file
				source = args[0]
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
			}

			result, err := scraper.Extract(r, scraper.Options{Fields: f})
			if err != nil {
				return fmt.Errorf("extracting %s: %w", source, err)
			}
			for _, failure := range result.Failures {
				logger.Warn("Group could not be parsed", logger.Fields{"source": source, "index": failure.Index}, failure.Err)
			}

			filters.apply(result, order)
			if err := WriteCourse(cmd.OutOrStdout(), CourseOutput{Name: name, Result: result}, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if result.Partial() {
				return errPartial
			}
			return nil
		},
	}

	out.register(cmd)
	filters.register(cmd)
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Fields to extract: id, places, teachers, periods (default all)")
	cmd.Flags().StringVar(&name, "name", "", "Course label for text and ics output (default file name)")

	return cmd
}

func newBatchCmd(g *globalOptions) *cobra.Command {
	var (
		out         outputFlags
		filters     filterFlags
		configPath  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Fetch the groups of every course in a config file",
		Example: `  uqam-horaire batch --config courses.toml
  uqam-horaire batch --config courses.yaml --format ics > session.ics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := out.parse()
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !g.explicitLevel(cmd) {
				level, _ := logger.ParseLevel(cfg.LogLevel)
				logger.SetDefault(logger.New(level, g.logOut))
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}

			sc := scraper.New(cfg.ScraperOptions()...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results := sc.FetchAll(ctx, cfg.Courses, cfg.Concurrency)
			partial := false
			for _, r := range results {
				if r.Failed() || r.Result.Partial() {
					partial = true
				}
				if r.Result != nil {
					filters.apply(r.Result, order)
				}
			}

			if err := WriteBatch(cmd.OutOrStdout(), results, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if partial {
				return errPartial
			}
			return nil
		},
	}

	out.register(cmd)
	filters.register(cmd)
	cmd.Flags().StringVar(&configPath, "config", "", "Batch file, .toml, .yaml or .yml (required)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Courses fetched at once, overrides the config file")
	cmd.MarkFlagRequired("config")

	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		fetch fetchFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve course groups over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := fetch.scraper()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go sc.RunCacheJanitor(ctx, scraper.DefaultCacheTTL)

			return api.NewServer(addr, sc).Run(ctx)
		},
	}

	fetch.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	return cmd
}

func courseName(c course.Course) string {
	return fmt.Sprintf("%s %s", c.Symbol, c.Term())
}
