//go:build mage

package main

import (
	"fmt"
	"strings"
	"time"

	semver "github.com/Masterminds/semver/v3"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const DOCKER_VERSION_CONSTRAINT = ">= 19.0.0"

const (
	elasticsearchContainer = "cwlmetrics-elasticsearch"
	elasticsearchImage     = "docker.elastic.co/elasticsearch/elasticsearch:7.17.10"
)

func dockerBinary() string {
	return binaryWithExt("docker")
}

func dockerOutput(args ...string) (string, error) {
	return sh.Output(dockerBinary(), args...)
}

func dockerRun(args ...string) error {
	return sh.Run(dockerBinary(), args...)
}

func dockerVersion() (*semver.Version, error) {
	output, err := dockerOutput("--version")
	if err != nil {
		return nil, errors.Errorf("error running version cmd: %v", err)
	}
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return nil, errors.Errorf("unexpected version cmd output: %s", output)
	}
	version, err := semver.NewVersion(strings.Trim(fields[2], ","))
	if err != nil {
		return nil, errors.Errorf("error parsing version: %v", err)
	}
	return version, nil
}

func dockerCheck() error {
	version, err := dockerVersion()
	if err != nil {
		return errors.Errorf("error getting version: %v", err)
	}
	constraint, err := semver.NewConstraint(DOCKER_VERSION_CONSTRAINT)
	if err != nil {
		return errors.Errorf("error parsing constraint: %v", err)
	}
	if !constraint.Check(version) {
		return errors.Errorf("found version %v but it failed constraint %v", version, constraint)
	}
	return nil
}

// Start a single-node Elasticsearch on localhost:9200 for running cwlmetrics against.
func LocalDev() error {
	mg.Deps(dockerCheck)
	err := dockerRun("run", "-d", "--name="+elasticsearchContainer,
		"-p=9200:9200",
		"-e", "discovery.type=single-node",
		"-e", "xpack.security.enabled=false",
		elasticsearchImage,
	)
	if err != nil {
		return err
	}
	fmt.Println("Waiting for elasticsearch to start...")
	return waitForElasticsearch(2 * time.Minute)
}

// Stop the local Elasticsearch and discard its data.
func LocalDevStop() error {
	return dockerRun("rm", "-f", elasticsearchContainer)
}

func waitForElasticsearch(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		output, err := dockerOutput("exec", elasticsearchContainer, "curl", "-s", "localhost:9200/_cluster/health")
		if err == nil && strings.Contains(output, `"status"`) && !strings.Contains(output, `"status":"red"`) {
			fmt.Println("Elasticsearch is running!")
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return errors.Errorf("elasticsearch did not become ready within %s", timeout)
}
