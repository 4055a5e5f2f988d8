package pointer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPointer(t *testing.T) {
	v := 3
	p := Pointer(v)
	v = 4
	assert.Equal(t, 3, *p)
}

func TestTime(t *testing.T) {
	assert.Nil(t, Time(time.Time{}))
	now := time.Now()
	assert.Equal(t, now, *Time(now))
}
