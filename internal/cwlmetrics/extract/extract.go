package extract

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
	"github.com/cwl-metrics/cwl-metrics/internal/common/pointer"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// ExtractWorkflows converts raw workflow documents into workflows, one per document and in the same order.
// Malformed fields are left absent and reported in the returned error, which is a *multierror.Error of
// *metricserrors.ErrShapeMismatch; the workflows are complete and usable even when the error is non-nil.
func ExtractWorkflows(documents []store.Document) ([]*model.Workflow, error) {
	var result *multierror.Error
	workflows := make([]*model.Workflow, 0, len(documents))
	for _, doc := range documents {
		e := &documentExtractor{documentID: doc.ID}
		workflows = append(workflows, e.workflow(doc.Source))
		result = multierror.Append(result, e.mismatches...)
	}
	return workflows, result.ErrorOrNil()
}

// documentExtractor reads a single workflow document, collecting shape mismatches as it goes.
type documentExtractor struct {
	documentID string
	// Prepended to every reported field, e.g., "steps.bwa.".
	prefix     string
	mismatches []error
}

func (e *documentExtractor) mismatch(field string, format string, args ...interface{}) {
	e.mismatches = append(e.mismatches, &metricserrors.ErrShapeMismatch{
		DocumentID: e.documentID,
		Field:      e.prefix + field,
		Reason:     fmt.Sprintf(format, args...),
	})
}

func (e *documentExtractor) workflow(source map[string]interface{}) *model.Workflow {
	wf := &model.Workflow{
		WorkflowID: e.documentID,
		Platform:   e.platform(source),
		Steps:      map[string]*model.Step{},
	}
	if name, ok := e.optionalString(source, "workflow.cwlfile"); ok {
		wf.WorkflowName = name
	} else if name, ok := e.optionalString(source, "workflow.name"); ok {
		wf.WorkflowName = name
	} else {
		e.mismatch("workflow.cwlfile", "missing")
	}
	wf.StartTimestamp = e.requiredTime(source, "workflow.start_date")
	wf.EndTimestamp = e.requiredTime(source, "workflow.end_date")
	wf.ElapsedSeconds = model.ElapsedSeconds(wf.StartTimestamp, wf.EndTimestamp)
	wf.Inputs, _ = store.Lookup(source, "workflow.inputs")
	wf.Outputs, _ = store.Lookup(source, "workflow.outputs")

	for _, raw := range e.rawSteps(source) {
		step := e.step(raw.field, raw.name, raw.source)
		if step == nil {
			continue
		}
		if _, exists := wf.Steps[step.ContainerID]; exists {
			e.mismatch(raw.field, "duplicate container id %s", step.ContainerID)
			continue
		}
		wf.Steps[step.ContainerID] = step
	}
	return wf
}

func (e *documentExtractor) platform(source map[string]interface{}) model.Platform {
	for _, field := range []string{"platform", "workflow.platform"} {
		v, ok := store.Lookup(source, field)
		if !ok || v == nil {
			continue
		}
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
		e.mismatch(field, "expected an object but got %T", v)
	}
	return model.Platform{}
}

type rawStep struct {
	// Path of the step within the document, for error reporting.
	field string
	// Key of the step if steps are stored as an object.
	name   string
	source map[string]interface{}
}

// rawSteps returns the step documents, which are stored either as an object keyed by step name
// or as an array. Object entries are returned in key order.
func (e *documentExtractor) rawSteps(source map[string]interface{}) []rawStep {
	v, ok := store.Lookup(source, "steps")
	if !ok || v == nil {
		e.mismatch("steps", "missing")
		return nil
	}
	var steps []rawStep
	switch t := v.(type) {
	case map[string]interface{}:
		names := maps.Keys(t)
		slices.Sort(names)
		for _, name := range names {
			field := "steps." + name
			if m, ok := t[name].(map[string]interface{}); ok {
				steps = append(steps, rawStep{field: field, name: name, source: m})
			} else {
				e.mismatch(field, "expected an object but got %T", t[name])
			}
		}
	case []interface{}:
		for i, s := range t {
			field := fmt.Sprintf("steps.%d", i)
			if m, ok := s.(map[string]interface{}); ok {
				steps = append(steps, rawStep{field: field, source: m})
			} else {
				e.mismatch(field, "expected an object but got %T", s)
			}
		}
	default:
		e.mismatch("steps", "expected an object or array but got %T", v)
	}
	return steps
}

func (e *documentExtractor) step(field string, name string, source map[string]interface{}) *model.Step {
	scoped := &documentExtractor{documentID: e.documentID, prefix: field + "."}
	step := scoped.canonicalStep(name, source)
	e.mismatches = append(e.mismatches, scoped.mismatches...)
	return step
}

// canonicalStep normalises one step document. Steps without a container id cannot be joined to metrics and are dropped.
func (e *documentExtractor) canonicalStep(name string, source map[string]interface{}) *model.Step {
	shape, ok := detectStepShape(source)
	if !ok {
		e.mismatch(flatShape.containerID, "missing, and %s is missing too", nestedShape.containerID)
		return nil
	}
	containerID, ok := e.optionalString(source, shape.containerID)
	if !ok || containerID == "" {
		e.mismatch(shape.containerID, "expected a non-empty string")
		return nil
	}
	step := &model.Step{
		ContainerID: containerID,
		StepName:    name,
		InputFiles:  model.InputFileSize{},
	}
	if stepName, ok := e.optionalString(source, "stepname"); ok {
		step.StepName = stepName
	}
	step.ToolStatus, _ = e.optionalString(source, "tool_status")
	step.ToolVersion, _ = e.optionalString(source, "tool_version")
	for _, imageField := range shape.containerImage {
		if image, ok := e.optionalString(source, imageField); ok {
			step.ContainerImage = image
			break
		}
	}
	step.StartTimestamp = e.requiredTime(source, shape.startTime)
	step.EndTimestamp = e.requiredTime(source, shape.endTime)
	step.ElapsedSeconds = model.ElapsedSeconds(step.StartTimestamp, step.EndTimestamp)
	step.ExitCode = e.optionalInt(source, shape.exitCode)
	if inputs, ok := store.Lookup(source, "inputs"); ok {
		step.InputFiles = InputFiles(inputs)
	}
	return step
}

// optionalString returns the string at field. A value of another type is reported as a mismatch.
func (e *documentExtractor) optionalString(source map[string]interface{}, field string) (string, bool) {
	v, ok := store.Lookup(source, field)
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		e.mismatch(field, "expected a string but got %T", v)
	}
	return s, ok
}

func (e *documentExtractor) optionalInt(source map[string]interface{}, field string) *int64 {
	v, ok := store.Lookup(source, field)
	if !ok || v == nil {
		return nil
	}
	i, ok := store.AsInt(v)
	if !ok {
		e.mismatch(field, "expected an integer but got %v", v)
		return nil
	}
	return &i
}

// requiredTime returns the timestamp at field, or nil after reporting a mismatch if it is missing or unparsable.
func (e *documentExtractor) requiredTime(source map[string]interface{}, field string) *time.Time {
	v, ok := store.Lookup(source, field)
	if !ok || v == nil {
		e.mismatch(field, "missing")
		return nil
	}
	ts, ok := store.AsTime(v)
	if !ok {
		e.mismatch(field, "unparsable timestamp %v", v)
		return nil
	}
	return pointer.Time(ts.UTC())
}
