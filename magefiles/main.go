//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const cwlmetricsPackage = "github.com/cwl-metrics/cwl-metrics"

// Check dependent tools are present and the correct version.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"go", goCheck},
		{"docker", dockerCheck},
		{"golangci-lint", golangciLintCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("check(s) failed.")
	}
	return nil
}

// Remove build output and test reports.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"dist", "test_reports"} {
		os.RemoveAll(path)
	}
}

// Build the cwlmetrics binary into dist/, stamped with the current version and commit.
func Build() error {
	mg.Deps(goCheck)
	ldflags := buildLdflags()
	output := "dist/" + binaryWithExt("cwlmetrics")
	if err := goRun("build", "-ldflags", ldflags, "-o", output, "./cmd/cwlmetrics"); err != nil {
		return err
	}
	fmt.Println("Built", output)
	return nil
}

func buildLdflags() string {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		fmt.Printf("could not determine git commit: %v\n", err)
	}
	version := os.Getenv("CWLMETRICS_VERSION")
	if version == "" {
		version = "dev"
	}
	vars := map[string]string{
		"ReleaseVersion": version,
		"GitCommit":      commit,
		"BuildTime":      time.Now().UTC().Format(time.RFC3339),
	}
	var flags []string
	for name, value := range vars {
		flags = append(flags, fmt.Sprintf("-X '%s/internal/cwlmetrics/build.%s=%s'", cwlmetricsPackage, name, value))
	}
	return strings.Join(flags, " ")
}
