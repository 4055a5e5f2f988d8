package report

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/aggregation"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/extract"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/retrieval"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// Report is the merged result of one generation.
type Report struct {
	Workflows []*model.Workflow
}

// Generator retrieves workflows, joins them to their container metrics and returns them as a Report.
type Generator struct {
	retriever *retrieval.WindowedRetriever
	source    aggregation.MetricsSource
	config    configuration.WorkflowsConfig
}

func NewGenerator(retriever *retrieval.WindowedRetriever, source aggregation.MetricsSource, config configuration.WorkflowsConfig) *Generator {
	return &Generator{
		retriever: retriever,
		source:    source,
		config:    config,
	}
}

// Generate builds a report of every workflow matching the configured filters, ordered by start time.
// Malformed workflow documents are logged and reported with their malformed fields absent.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	documents, err := g.retriever.RetrieveAll(ctx, &store.Query{
		Index:  g.config.Index,
		Filter: store.MatchAll(),
		// Document id order keeps windows consistent without relying on how workflow fields are mapped.
		Sort: []store.SortField{{Field: store.IDField}},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "error retrieving workflows")
	}

	workflows, err := extract.ExtractWorkflows(documents)
	if err != nil {
		logShapeMismatches(err)
	}
	workflows = g.filter(workflows)
	sortByStartTime(workflows)
	log.Debugf("reporting %d of %d workflows", len(workflows), len(documents))

	metrics := map[string]*model.ContainerMetrics{}
	if ids := model.ContainerIDs(workflows); len(ids) > 0 {
		metrics, err = g.source.ContainerMetrics(ctx, ids)
		if err != nil {
			return nil, errors.WithMessage(err, "error retrieving container metrics")
		}
		log.Debugf("found metrics for %d of %d containers", len(metrics), len(ids))
	}

	return &Report{Workflows: Merge(workflows, metrics)}, nil
}

func (g *Generator) filter(workflows []*model.Workflow) []*model.Workflow {
	filtered := make([]*model.Workflow, 0, len(workflows))
	for _, wf := range workflows {
		if g.config.Name != "" && wf.WorkflowName != g.config.Name {
			continue
		}
		if !startedWithin(wf, g.config.Since, g.config.Until) {
			continue
		}
		filtered = append(filtered, wf)
	}
	return filtered
}

// startedWithin reports whether wf started in [since, until]. Zero bounds are open.
// A workflow without a start time only matches if both bounds are open.
func startedWithin(wf *model.Workflow, since time.Time, until time.Time) bool {
	if since.IsZero() && until.IsZero() {
		return true
	}
	if wf.StartTimestamp == nil {
		return false
	}
	if !since.IsZero() && wf.StartTimestamp.Before(since) {
		return false
	}
	if !until.IsZero() && wf.StartTimestamp.After(until) {
		return false
	}
	return true
}

// sortByStartTime orders workflows by start time, with workflows without one last and id as tie breaker.
func sortByStartTime(workflows []*model.Workflow) {
	slices.SortStableFunc(workflows, func(a, b *model.Workflow) bool {
		switch {
		case a.StartTimestamp == nil && b.StartTimestamp == nil:
			return a.WorkflowID < b.WorkflowID
		case a.StartTimestamp == nil:
			return false
		case b.StartTimestamp == nil:
			return true
		case a.StartTimestamp.Equal(*b.StartTimestamp):
			return a.WorkflowID < b.WorkflowID
		default:
			return a.StartTimestamp.Before(*b.StartTimestamp)
		}
	})
}

func logShapeMismatches(err error) {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		log.WithError(err).Warn("error extracting workflows")
		return
	}
	for _, e := range merr.Errors {
		var mismatch *metricserrors.ErrShapeMismatch
		if errors.As(e, &mismatch) {
			log.WithField("document", mismatch.DocumentID).
				WithField("field", mismatch.Field).
				Warnf("skipping malformed value: %s", mismatch.Reason)
		} else {
			log.WithError(e).Warn("error extracting workflows")
		}
	}
}
