package testfixtures

// Fixtures shared by the report, render and command tests.
import (
	_ "embed"
	"strings"

	"github.com/cwl-metrics/cwl-metrics/internal/common"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

const (
	// Flat step shape, one step.
	KF3WorkflowID   = "wf-1"
	KF3WorkflowName = "KF3-sapporo.cwl"
	BwaContainerID  = "abcdef0123456789"

	// Nested step shape, two steps. The fastqc container has no telemetry.
	RnaseqWorkflowID   = "wf-2"
	RnaseqWorkflowName = "rnaseq.cwl"
	StarContainerID    = "feedfacecafebeef0123"
	FastqcContainerID  = "0000aaaa1111bbbb2222"

	// Container with telemetry that no workflow refers to.
	UnrelatedContainerID = "unrelated00000000"
)

// Corpus holds two workflow documents and the telemetry of their containers, as an NDJSON dump of hits.
//
//go:embed corpus.ndjson
var Corpus string

// Store returns a MemoryStore loaded with Corpus.
func Store() *store.MemoryStore {
	s := store.NewMemoryStore()
	if _, err := s.LoadNDJSON(strings.NewReader(Corpus)); err != nil {
		panic(err)
	}
	return s
}

// Config returns the default configuration with a window small enough to page through Corpus.
func Config() configuration.CwlMetricsConfig {
	var config configuration.CwlMetricsConfig
	if _, err := common.LoadConfig(&config, "", nil, configuration.SetDefaults); err != nil {
		panic(err)
	}
	config.Retrieval.WindowSize = 2
	return config
}
