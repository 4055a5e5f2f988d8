package extract

import (
	"path"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// InputFiles walks a step's input bindings and returns the size of every file found.
// Any object with a numeric size is a file; its basename is taken from "basename",
// or else from the last element of "path" or "location". Nested objects and arrays,
// including secondaryFiles, are walked too.
func InputFiles(inputs interface{}) model.InputFileSize {
	files := model.InputFileSize{}
	collectInputFiles(inputs, files)
	return files
}

func collectInputFiles(v interface{}, files model.InputFileSize) {
	switch t := v.(type) {
	case []interface{}:
		for _, e := range t {
			collectInputFiles(e, files)
		}
	case map[string]interface{}:
		if size, ok := fileSize(t); ok {
			if basename := fileBasename(t); basename != "" {
				files[basename] = size
			}
		}
		keys := maps.Keys(t)
		slices.Sort(keys)
		for _, key := range keys {
			collectInputFiles(t[key], files)
		}
	}
}

func fileSize(binding map[string]interface{}) (int64, bool) {
	v, ok := binding["size"]
	if !ok {
		return 0, false
	}
	if _, isString := v.(string); isString {
		return 0, false
	}
	return store.AsInt(v)
}

func fileBasename(binding map[string]interface{}) string {
	if basename, ok := binding["basename"].(string); ok && basename != "" {
		return basename
	}
	for _, key := range []string{"path", "location"} {
		if p, ok := binding[key].(string); ok && p != "" {
			return path.Base(p)
		}
	}
	return ""
}
