package main

import (
	"fmt"
	"strings"

	"github.com/project-tktt/go-vacancies/internal/common/storage"
	"github.com/project-tktt/go-vacancies/internal/common/transport"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/internal/module"
	"github.com/project-tktt/go-vacancies/internal/module/providers"
	"github.com/project-tktt/go-vacancies/internal/vacancy"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Fetch vacancies from job boards and print the best paid",
	Long: "Queries every selected job board with the same search text, normalizes the answers and prints the top vacancies by salary.\n" +
		"Source specific parameters can be passed as --param source:key=value, e.g. --param hh:search_field=100 or --param sj:keys=1=golang.",
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var (
	searchSources  []string
	searchCount    int
	searchPage     int
	searchLocation string
	searchTop      int
	searchParams   []string
	searchSave     bool
)

func init() {
	searchCmd.Flags().StringSliceVarP(&searchSources, "source", "s", nil, "Job boards to query (default from CRAWLER_SOURCES)")
	searchCmd.Flags().IntVarP(&searchCount, "count", "c", 0, "Vacancies per board (board default when 0)")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "Result page, starting at 0")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "HH area id or SuperJob town")
	searchCmd.Flags().IntVarP(&searchTop, "top", "n", 10, "How many vacancies to print")
	searchCmd.Flags().StringArrayVarP(&searchParams, "param", "p", nil, "Extra parameter as source:key=value (repeatable)")
	searchCmd.Flags().BoolVar(&searchSave, "save", false, "Save every fetched vacancy to storage")

	rootCmd.AddCommand(searchCmd)
}

// sourceParam is one --param flag value
type sourceParam struct {
	Source domain.JobSource
	Key    string
	Value  string
}

func parseSourceParam(raw string) (sourceParam, error) {
	name, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return sourceParam{}, fmt.Errorf("param %q: want source:key=value", raw)
	}
	source, ok := domain.ParseSource(name)
	if !ok {
		return sourceParam{}, fmt.Errorf("param %q: unknown source %q", raw, name)
	}
	key, value, ok := strings.Cut(rest, "=")
	if !ok || key == "" {
		return sourceParam{}, fmt.Errorf("param %q: want source:key=value", raw)
	}
	return sourceParam{Source: source, Key: key, Value: value}, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	extra := make([]sourceParam, 0, len(searchParams))
	for _, raw := range searchParams {
		p, err := parseSourceParam(raw)
		if err != nil {
			return err
		}
		extra = append(extra, p)
	}

	sources := searchSources
	if len(sources) == 0 {
		sources = cfg.Crawler.Sources
	}

	tr := transport.NewCollyTransport(transport.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.Crawler.Timeout,
		RequestDelay: cfg.Crawler.RequestDelay,
	})

	ps, err := providers.FromNames(sources, cfg, tr, logger)
	if err != nil {
		return err
	}

	query := providers.Query{Count: searchCount, Page: searchPage, Location: searchLocation}
	if len(args) > 0 {
		query.Text = args[0]
	}

	// Rejected parameters are logged by the provider and leave its previous state
	for _, p := range ps {
		_ = providers.ApplyQuery(p, query)
		for _, e := range extra {
			if e.Source == p.Source() {
				_ = p.SetParam(e.Key, e.Value)
			}
		}
	}

	records, err := module.Aggregate(ctx, ps)
	if err != nil {
		return err
	}

	for _, p := range ps {
		if err := p.Status().Err(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", p.Source(), err)
		}
	}

	collection := vacancy.NewCollection()
	collection.Add(records...)

	for _, e := range collection.TopN(searchTop) {
		fmt.Fprintf(out, "%s\n\n", e)
	}
	fmt.Fprintf(out, "Showing %d of %d vacancies\n", min(max(searchTop, 0), collection.Len()), collection.Len())

	if !searchSave || len(records) == 0 {
		return nil
	}

	return withStore(ctx, func(store storage.Storage) error {
		if err := store.Update(ctx, records); err != nil {
			return fmt.Errorf("save vacancies: %w", err)
		}
		fmt.Fprintf(out, "Saved %d vacancies\n", len(records))
		return nil
	})
}
