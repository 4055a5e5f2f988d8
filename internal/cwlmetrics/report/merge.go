package report

import (
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
)

// Merge attaches metricsByContainer[step.ContainerID] to every step of every workflow.
// Steps without an entry are left with nil Metrics. Steps sharing a container id share the same metrics.
func Merge(workflows []*model.Workflow, metricsByContainer map[string]*model.ContainerMetrics) []*model.Workflow {
	for _, wf := range workflows {
		for _, step := range wf.Steps {
			step.Metrics = metricsByContainer[step.ContainerID]
		}
	}
	return workflows
}
