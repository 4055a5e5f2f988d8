package main

import (
	"os"

	"github.com/cwl-metrics/cwl-metrics/cmd/cwlmetrics/cmd"
	"github.com/cwl-metrics/cwl-metrics/internal/common"
)

// Config is handled by cmd/params.go
func main() {
	common.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
