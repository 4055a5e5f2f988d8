package extract

import (
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// stepShape records where each canonical step attribute lives in one historical step document layout.
type stepShape struct {
	name        string
	containerID string
	// Tried in order.
	containerImage []string
	startTime      string
	endTime        string
	exitCode       string
}

var (
	// Written by the original metrics collector: every attribute is a top-level field.
	flatShape = stepShape{
		name:           "flat",
		containerID:    "container_id",
		containerImage: []string{"container_image"},
		startTime:      "start_date",
		endTime:        "end_date",
		exitCode:       "exit_code",
	}
	// Written once steps embedded the container runtime's inspect output.
	nestedShape = stepShape{
		name:           "nested",
		containerID:    "container.process.id",
		containerImage: []string{"container.process.image.name", "docker_inspect.image"},
		startTime:      "docker_inspect.start_time",
		endTime:        "docker_inspect.end_time",
		exitCode:       "docker_inspect.exit_code",
	}
	stepShapes = []stepShape{flatShape, nestedShape}
)

// detectStepShape returns the first shape whose container id field is present in raw.
func detectStepShape(raw map[string]interface{}) (stepShape, bool) {
	for _, shape := range stepShapes {
		if _, ok := store.Lookup(raw, shape.containerID); ok {
			return shape, true
		}
	}
	return stepShape{}, false
}
