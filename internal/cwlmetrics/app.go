package cwlmetrics

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/aggregation"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/build"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/metrics"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/render"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/report"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/retrieval"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params Params
	// Out is used to write the report. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
}

// Params holds all user-customizable parameters.
// Flags, env vars and config files all decode into the same struct, so every setting can be provided any of those ways.
type Params struct {
	Config configuration.CwlMetricsConfig
}

// New instantiates an App writing to standard out.
func New() *App {
	return &App{
		Params: Params{},
		Out:    os.Stdout,
	}
}

// Json writes the report as a {"metrics": [...]} document.
func (a *App) Json(ctx context.Context) error {
	return a.report(ctx, render.JSON)
}

// Yaml writes the same document as Json, in YAML.
func (a *App) Yaml(ctx context.Context) error {
	return a.report(ctx, render.YAML)
}

// Tsv writes one tab-separated row per step.
func (a *App) Tsv(ctx context.Context) error {
	return a.report(ctx, render.TSV)
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return w.Flush()
}

func (a *App) report(ctx context.Context, renderer render.Renderer) error {
	config := a.Params.Config
	m := metrics.NewMetrics(metrics.MetricsPrefix)

	backing, err := a.store()
	if err != nil {
		return err
	}
	s := metrics.NewInstrumentedStore(backing, m)
	source, err := aggregation.New(s, config)
	if err != nil {
		return err
	}
	generator := report.NewGenerator(retrieval.NewWindowedRetriever(s, config.Retrieval.WindowSize), source, config.Workflows)

	r, err := generator.Generate(ctx)
	if err != nil {
		return err
	}
	if err := renderer(a.Out, r); err != nil {
		return errors.WithMessage(err, "error writing report")
	}

	if url := config.Prometheus.PushgatewayUrl; url != "" {
		if err := m.Push(ctx, url, config.Prometheus.Job); err != nil {
			log.WithError(err).Warn("failed to push metrics")
		}
	}
	return nil
}

// store returns the document store to query: an in-memory copy of the input dumps if any are configured,
// and Elasticsearch otherwise.
func (a *App) store() (store.Store, error) {
	config := a.Params.Config
	if config.Input != "" {
		return loadInput(config.Input)
	}

	es := config.Elasticsearch
	address := es.Address()
	client, err := store.NewElasticsearchClient(address)
	if err != nil {
		return nil, err
	}
	log.Debugf("querying elasticsearch at %s", address)
	return store.NewRetryingStore(store.NewElasticsearchStore(client), es.MaxAttempts, es.RetryDelay), nil
}

// loadInput reads every NDJSON dump matching pattern into a single in-memory store.
// Files are loaded in lexical order.
func loadInput(pattern string) (*store.MemoryStore, error) {
	paths := []string{pattern}
	if strings.ContainsAny(pattern, "*?[{") {
		matches, err := zglob.Glob(pattern)
		if err != nil || len(matches) == 0 {
			return nil, errors.Errorf("no input files match %s", pattern)
		}
		slices.Sort(matches)
		paths = matches
	}

	s := store.NewMemoryStore()
	for _, path := range paths {
		if err := loadFile(s, path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func loadFile(s *store.MemoryStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	n, err := s.LoadNDJSON(f)
	if err != nil {
		return errors.WithMessagef(err, "error loading %s", path)
	}
	log.Debugf("loaded %d documents from %s", n, path)
	return nil
}
