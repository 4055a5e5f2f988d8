package model

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SortedSteps returns the workflow's steps ordered by start time, with container id as tie breaker.
// Steps without a start time come last.
func (wf *Workflow) SortedSteps() []*Step {
	steps := maps.Values(wf.Steps)
	slices.SortFunc(steps, func(a, b *Step) bool {
		switch {
		case a.StartTimestamp == nil && b.StartTimestamp == nil:
			return a.ContainerID < b.ContainerID
		case a.StartTimestamp == nil:
			return false
		case b.StartTimestamp == nil:
			return true
		case a.StartTimestamp.Equal(*b.StartTimestamp):
			return a.ContainerID < b.ContainerID
		default:
			return a.StartTimestamp.Before(*b.StartTimestamp)
		}
	})
	return steps
}
