package render

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/report"
)

var TSVHeader = []string{
	"container_id",
	"stepname",
	"hostname",
	"instance_type",
	"cpu_total_percent",
	"memory_max_usage",
	"memory_cache",
	"blkio_total_bytes",
	"container_image",
	"container_elapsed_seconds",
	"container_exit_code",
	"tool_status",
	"total_inputfile_size",
	"workflow_id",
	"workflow_name",
	"workflow_elapsed_seconds",
}

// fieldSeparators would split a field into several columns or rows.
var fieldSeparators = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// TSV writes a header followed by one row per step. Workflows keep their report order and steps are
// ordered by start time. Missing values are written as empty fields.
// Fields are written unquoted; tabs and line breaks inside a field are replaced by spaces.
func TSV(w io.Writer, r *report.Report) error {
	writer := bufio.NewWriter(w)
	if err := writeTSVRow(writer, TSVHeader); err != nil {
		return err
	}
	for _, wf := range r.Workflows {
		for _, step := range wf.SortedSteps() {
			if err := writeTSVRow(writer, tsvRow(wf, step)); err != nil {
				return err
			}
		}
	}
	return errors.WithStack(writer.Flush())
}

func writeTSVRow(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte('\t'); err != nil {
				return errors.WithStack(err)
			}
		}
		if _, err := fieldSeparators.WriteString(w, field); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(w.WriteByte('\n'))
}

func tsvRow(wf *model.Workflow, step *model.Step) []string {
	metrics := step.Metrics
	if metrics == nil {
		metrics = &model.ContainerMetrics{}
	}
	containerElapsed := step.ElapsedSeconds
	if containerElapsed == nil {
		containerElapsed = metrics.ElapsedTime
	}
	totalInputFileSize := ""
	if len(step.InputFiles) > 0 {
		totalInputFileSize = strconv.FormatInt(step.InputFiles.Total(), 10)
	}
	return []string{
		step.ShortContainerID(),
		step.StepName,
		wf.Platform.Hostname(),
		wf.Platform.InstanceType(),
		formatFloat(metrics.CPUTotalPercent),
		formatInt(metrics.MemoryMaxUsage),
		formatInt(metrics.MemoryCache),
		formatInt(metrics.BlkioTotalBytes),
		step.ContainerImage,
		formatFloat(containerElapsed),
		formatInt(step.ExitCode),
		step.ToolStatus,
		totalInputFileSize,
		wf.WorkflowID,
		wf.WorkflowName,
		formatFloat(wf.ElapsedSeconds),
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(i *int64) string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(*i, 10)
}
