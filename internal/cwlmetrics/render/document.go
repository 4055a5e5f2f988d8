package render

import (
	"time"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/report"
)

// Document is the hierarchical form of a report shared by the json and yaml output.
type Document struct {
	Metrics []Workflow `json:"metrics"`
}

type Workflow struct {
	WorkflowID     string                 `json:"workflow_id"`
	WorkflowName   string                 `json:"workflow_name"`
	StartTimestamp *time.Time             `json:"start_timestamp"`
	EndTimestamp   *time.Time             `json:"end_timestamp"`
	ElapsedSeconds *float64               `json:"elapsed_seconds"`
	Platform       map[string]interface{} `json:"platform"`
	Inputs         interface{}            `json:"inputs"`
	Outputs        interface{}            `json:"outputs"`
	// Keyed by container id.
	Steps map[string]Step `json:"steps"`
}

type Step struct {
	ContainerID    string           `json:"container_id"`
	StepName       string           `json:"stepname"`
	ToolStatus     string           `json:"tool_status"`
	ToolVersion    string           `json:"tool_version"`
	ContainerImage string           `json:"container_image"`
	StartTimestamp *time.Time       `json:"start_timestamp"`
	EndTimestamp   *time.Time       `json:"end_timestamp"`
	ElapsedSeconds *float64         `json:"elapsed_seconds"`
	ExitCode       *int64           `json:"exit_code"`
	InputFiles     map[string]int64 `json:"input_files"`
	Metrics        *Metrics         `json:"metrics,omitempty"`
}

type Metrics struct {
	CPUTotalPercent *float64 `json:"cpu_total_percent,omitempty"`
	MemoryMaxUsage  *int64   `json:"memory_max_usage,omitempty"`
	MemoryCache     *int64   `json:"memory_cache,omitempty"`
	BlkioTotalBytes *int64   `json:"blkio_total_bytes,omitempty"`
	ElapsedTime     *float64 `json:"elapsed_time,omitempty"`
}

// NewDocument converts a report. Workflows keep their report order.
func NewDocument(r *report.Report) *Document {
	doc := &Document{Metrics: make([]Workflow, 0, len(r.Workflows))}
	for _, wf := range r.Workflows {
		doc.Metrics = append(doc.Metrics, newWorkflow(wf))
	}
	return doc
}

func newWorkflow(wf *model.Workflow) Workflow {
	platform := map[string]interface{}(wf.Platform)
	if platform == nil {
		platform = map[string]interface{}{}
	}
	w := Workflow{
		WorkflowID:     wf.WorkflowID,
		WorkflowName:   wf.WorkflowName,
		StartTimestamp: wf.StartTimestamp,
		EndTimestamp:   wf.EndTimestamp,
		ElapsedSeconds: wf.ElapsedSeconds,
		Platform:       platform,
		Inputs:         wf.Inputs,
		Outputs:        wf.Outputs,
		Steps:          make(map[string]Step, len(wf.Steps)),
	}
	for id, step := range wf.Steps {
		w.Steps[id] = newStep(step)
	}
	return w
}

func newStep(step *model.Step) Step {
	inputFiles := map[string]int64(step.InputFiles)
	if inputFiles == nil {
		inputFiles = map[string]int64{}
	}
	s := Step{
		ContainerID:    step.ContainerID,
		StepName:       step.StepName,
		ToolStatus:     step.ToolStatus,
		ToolVersion:    step.ToolVersion,
		ContainerImage: step.ContainerImage,
		StartTimestamp: step.StartTimestamp,
		EndTimestamp:   step.EndTimestamp,
		ElapsedSeconds: step.ElapsedSeconds,
		ExitCode:       step.ExitCode,
		InputFiles:     inputFiles,
	}
	if m := step.Metrics; m != nil {
		s.Metrics = &Metrics{
			CPUTotalPercent: m.CPUTotalPercent,
			MemoryMaxUsage:  m.MemoryMaxUsage,
			MemoryCache:     m.MemoryCache,
			BlkioTotalBytes: m.BlkioTotalBytes,
			ElapsedTime:     m.ElapsedTime,
		}
	}
	return s
}
