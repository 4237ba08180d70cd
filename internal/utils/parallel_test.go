package utils

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunParallelTasks(t *testing.T) {
	var calls atomic.Int32
	task := func() error {
		calls.Add(1)
		return nil
	}

	assert.NoError(t, RunParallelTasks(task, task, task))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunParallelTasks_CollectsErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	err := RunParallelTasks(
		func() error { return errA },
		func() error { return nil },
		func() error { return errB },
	)

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestRunParallelTasks_Empty(t *testing.T) {
	assert.NoError(t, RunParallelTasks())
}
