package model

import (
	"time"
)

const ShortContainerIDLength = 12

// Workflow is one execution of a pipeline.
type Workflow struct {
	WorkflowID     string
	WorkflowName   string
	StartTimestamp *time.Time
	EndTimestamp   *time.Time
	// Set only if both timestamps could be parsed.
	ElapsedSeconds *float64
	Platform       Platform
	Inputs         interface{}
	Outputs        interface{}
	// Steps keyed by container id.
	Steps map[string]*Step
}

// Step is one container execution within a workflow.
type Step struct {
	ContainerID    string
	StepName       string
	ToolStatus     string
	ToolVersion    string
	ContainerImage string
	StartTimestamp *time.Time
	EndTimestamp   *time.Time
	ElapsedSeconds *float64
	ExitCode       *int64
	InputFiles     InputFileSize
	// Attached by the merger; nil if no metrics exist for ContainerID.
	Metrics *ContainerMetrics
}

// ContainerMetrics summarises the resource usage of one container.
// Every value is the maximum observed across the container's telemetry samples, or nil if there were none.
type ContainerMetrics struct {
	CPUTotalPercent *float64
	MemoryMaxUsage  *int64
	MemoryCache     *int64
	BlkioTotalBytes *int64
	// Only populated by sources that sample telemetry timestamps.
	ElapsedTime *float64
}

// InputFileSize maps file basename to size in bytes.
type InputFileSize map[string]int64

// Total returns the sum of all file sizes.
func (s InputFileSize) Total() int64 {
	var total int64
	for _, size := range s {
		total += size
	}
	return total
}

// ShortContainerID returns the first 12 characters of the container id, as printed by docker.
func (s *Step) ShortContainerID() string {
	if len(s.ContainerID) <= ShortContainerIDLength {
		return s.ContainerID
	}
	return s.ContainerID[:ShortContainerIDLength]
}

// ElapsedSeconds returns end - start in seconds, or nil if either is missing.
func ElapsedSeconds(start, end *time.Time) *float64 {
	if start == nil || end == nil {
		return nil
	}
	elapsed := end.Sub(*start).Seconds()
	return &elapsed
}

// ContainerIDs returns the container ids of every step of every workflow, in order, without duplicates.
func ContainerIDs(workflows []*Workflow) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, wf := range workflows {
		for _, step := range wf.SortedSteps() {
			if step.ContainerID == "" || seen[step.ContainerID] {
				continue
			}
			seen[step.ContainerID] = true
			ids = append(ids, step.ContainerID)
		}
	}
	return ids
}
