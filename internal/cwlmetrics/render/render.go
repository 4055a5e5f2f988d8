package render

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/report"
)

// Renderer writes a report to w in one output format.
type Renderer func(w io.Writer, r *report.Report) error

// JSON writes the report as an indented {"metrics": [...]} document.
func JSON(w io.Writer, r *report.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return errors.WithStack(encoder.Encode(NewDocument(r)))
}

// YAML writes the same document as JSON, in YAML.
func YAML(w io.Writer, r *report.Report) error {
	out, err := yaml.Marshal(NewDocument(r))
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = w.Write(out)
	return errors.WithStack(err)
}
