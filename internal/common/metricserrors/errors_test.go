package metricserrors

import (
	"io"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrTransport_Error(t *testing.T) {
	tests := map[string]struct {
		err      *ErrTransport
		expected string
	}{
		"bare": {
			err:      &ErrTransport{},
			expected: "query failed",
		},
		"status and message": {
			err:      &ErrTransport{Index: "workflow", StatusCode: 400, Message: "search_phase_execution_exception"},
			expected: `query on index "workflow" failed with status 400; search_phase_execution_exception`,
		},
		"cause": {
			err:      &ErrTransport{Index: "telegraf", Cause: io.EOF},
			expected: `query on index "telegraf" failed: EOF`,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestIsTransport(t *testing.T) {
	err := errors.Wrap(&ErrTransport{Index: "workflow", Cause: io.EOF}, "error retrieving window 2")
	assert.True(t, IsTransport(err))
	assert.True(t, errors.Is(err, io.EOF))
	assert.False(t, IsTransport(io.EOF))
	assert.False(t, IsTransport(nil))
}

func TestIsShapeMismatch_InMultiError(t *testing.T) {
	var result *multierror.Error
	result = multierror.Append(result, &ErrShapeMismatch{DocumentID: "wf1", Field: "workflow.end_date", Reason: "missing"})
	assert.True(t, IsShapeMismatch(result.ErrorOrNil()))
	assert.False(t, IsTransport(result.ErrorOrNil()))
}

func TestErrInvalidArgument_Error(t *testing.T) {
	err := &ErrInvalidArgument{Name: "format", Value: "csv"}
	assert.Equal(t, `value "csv" is invalid for field "format"`, err.Error())
	err.Message = "must be one of json, yaml, tsv"
	assert.Equal(t, `value "csv" is invalid for field "format"; must be one of json, yaml, tsv`, err.Error())
}
