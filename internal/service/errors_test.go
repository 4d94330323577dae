package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskboard/taskboard-api/internal/store"
)

func TestNewTaskServiceError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, NewTaskServiceError("create_task", "message", nil))
	})

	t.Run("store not-found maps to service sentinel", func(t *testing.T) {
		err := NewTaskServiceError("get_task", "failed to retrieve task", store.ErrTaskNotFound)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("service sentinel passes through unwrapped", func(t *testing.T) {
		err := NewTaskServiceError("get_task", "failed to retrieve task", ErrTaskNotFound)
		assert.Equal(t, ErrTaskNotFound, err)
	})

	t.Run("other errors are wrapped with context", func(t *testing.T) {
		underlying := errors.New("publish timeout")
		err := NewTaskServiceError("update_task", "failed to publish status event", underlying)

		assert.ErrorIs(t, err, underlying)

		var svcErr *TaskServiceError
		assert.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "update_task", svcErr.Operation)
		assert.Contains(t, err.Error(), "task service update_task failed")
		assert.Contains(t, err.Error(), "publish timeout")
	})
}
