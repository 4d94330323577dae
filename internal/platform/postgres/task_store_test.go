package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/store"
	"github.com/taskboard/taskboard-api/internal/testutils"
)

func TestBuildTaskFilter(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	status := domain.TaskStatusPending
	priority := domain.TaskPriorityHigh
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("owner only", func(t *testing.T) {
		where, args := buildTaskFilter(ownerID, store.TaskFilter{})
		assert.Equal(t, "owner_id = $1", where)
		assert.Equal(t, []any{ownerID}, args)
	})

	t.Run("all predicates", func(t *testing.T) {
		where, args := buildTaskFilter(ownerID, store.TaskFilter{
			Status:      &status,
			Priority:    &priority,
			CreatedFrom: &from,
			CreatedTo:   &to,
			Search:      "report",
		})

		assert.Equal(t,
			"owner_id = $1 AND status = $2 AND priority = $3 AND created_at >= $4 AND created_at <= $5 AND (title ILIKE $6 OR description ILIKE $6)",
			where)
		assert.Equal(t, []any{ownerID, status, priority, from, to, "%report%"}, args)
	})

	t.Run("search term gets one shared placeholder", func(t *testing.T) {
		where, args := buildTaskFilter(ownerID, store.TaskFilter{Search: "notes"})
		assert.Equal(t, "owner_id = $1 AND (title ILIKE $2 OR description ILIKE $2)", where)
		assert.Len(t, args, 2, "the search pattern is passed once")
		assert.Equal(t, "%notes%", args[1])
	})

	t.Run("placeholders stay sequential with gaps in the filter", func(t *testing.T) {
		where, args := buildTaskFilter(ownerID, store.TaskFilter{
			Priority:  &priority,
			CreatedTo: &to,
		})
		assert.Equal(t, "owner_id = $1 AND priority = $2 AND created_at <= $3", where)
		assert.Equal(t, []any{ownerID, priority, to}, args)
	})
}

func TestPostgresTaskStore_CRUD(t *testing.T) {
	if !testutils.IsIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	db, err := testutils.GetTestDB()
	require.NoError(t, err, "Failed to connect to test database")
	defer testutils.AssertCloseNoError(t, db)

	ctx := context.Background()
	taskStore := NewPostgresTaskStore(db, nil)
	ownerID := uuid.New()
	testutils.CleanupOwnerTasks(t, db, ownerID)

	t.Run("Create_And_GetByID_Round_Trip", func(t *testing.T) {
		due := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Microsecond)
		task, err := domain.NewTask(ownerID, "Ship the migration", "and watch the dashboards", domain.TaskPriorityHigh, &due)
		require.NoError(t, err)

		require.NoError(t, taskStore.Create(ctx, task))

		got, err := taskStore.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, task.OwnerID, got.OwnerID)
		assert.Equal(t, task.Title, got.Title)
		assert.Equal(t, task.Description, got.Description)
		assert.Equal(t, domain.TaskStatusPending, got.Status)
		assert.Equal(t, domain.TaskPriorityHigh, got.Priority)
		require.NotNil(t, got.DueDate)
		assert.WithinDuration(t, due, *got.DueDate, time.Millisecond)
	})

	t.Run("GetByID_Missing_Returns_NotFound", func(t *testing.T) {
		_, err := taskStore.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("Create_Rejects_Invalid_Task", func(t *testing.T) {
		bad := &domain.Task{ID: uuid.New(), OwnerID: ownerID, Status: domain.TaskStatusPending, Priority: domain.TaskPriorityLow}
		err := taskStore.Create(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})

	t.Run("UpdateFields_Applies_Partial_Update", func(t *testing.T) {
		task := testutils.MustInsertTask(ctx, t, db, ownerID)

		status := domain.TaskStatusInProgress
		updated, err := taskStore.UpdateFields(ctx, task.ID, domain.TaskUpdate{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
		assert.Equal(t, task.Title, updated.Title, "absent fields stay unchanged")

		got, err := taskStore.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusInProgress, got.Status)
	})

	t.Run("UpdateFields_Missing_Returns_NotFound", func(t *testing.T) {
		status := domain.TaskStatusCompleted
		_, err := taskStore.UpdateFields(ctx, uuid.New(), domain.TaskUpdate{Status: &status})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("Delete_Missing_Returns_NotFound", func(t *testing.T) {
		task := testutils.MustInsertTask(ctx, t, db, ownerID)

		require.NoError(t, taskStore.Delete(ctx, task.ID))
		assert.ErrorIs(t, taskStore.Delete(ctx, task.ID), store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_ListPagination(t *testing.T) {
	if !testutils.IsIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	db, err := testutils.GetTestDB()
	require.NoError(t, err, "Failed to connect to test database")
	defer testutils.AssertCloseNoError(t, db)

	ctx := context.Background()
	taskStore := NewPostgresTaskStore(db, nil)
	ownerID := uuid.New()
	testutils.CleanupOwnerTasks(t, db, ownerID)

	const total = 5
	inserted := make([]uuid.UUID, 0, total)
	for i := 0; i < total; i++ {
		task := testutils.MustInsertTask(ctx, t, db, ownerID)
		inserted = append(inserted, task.ID)
	}

	t.Run("Pages_Partition_The_Result_Set", func(t *testing.T) {
		seen := map[uuid.UUID]int{}
		pageSize := 2

		for number := 1; ; number++ {
			page, err := taskStore.List(ctx, ownerID, store.TaskFilter{},
				store.Page{Number: number, Size: pageSize})
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			for _, task := range page {
				seen[task.ID]++
			}
		}

		assert.Len(t, seen, total, "every task appears across the pages")
		for _, id := range inserted {
			assert.Equal(t, 1, seen[id], "task %s should appear exactly once", id)
		}
	})

	t.Run("Count_Matches_Inserted_Rows", func(t *testing.T) {
		count, err := taskStore.Count(ctx, ownerID, store.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(total), count)
	})

	t.Run("Filter_By_Status", func(t *testing.T) {
		status := domain.TaskStatusInProgress
		_, err := taskStore.UpdateFields(ctx, inserted[0], domain.TaskUpdate{Status: &status})
		require.NoError(t, err)

		matches, err := taskStore.List(ctx, ownerID, store.TaskFilter{Status: &status}, store.Page{})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, inserted[0], matches[0].ID)
	})

	t.Run("Other_Owner_Sees_Nothing", func(t *testing.T) {
		otherOwner := uuid.New()
		page, err := taskStore.List(ctx, otherOwner, store.TaskFilter{}, store.Page{})
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}

func TestPostgresTaskStore_GetStats(t *testing.T) {
	if !testutils.IsIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	db, err := testutils.GetTestDB()
	require.NoError(t, err, "Failed to connect to test database")
	defer testutils.AssertCloseNoError(t, db)

	ctx := context.Background()
	taskStore := NewPostgresTaskStore(db, nil)
	ownerID := uuid.New()
	testutils.CleanupOwnerTasks(t, db, ownerID)

	// The snapshot is global, so assert on deltas rather than absolutes
	before, err := taskStore.GetStats(ctx)
	require.NoError(t, err)

	first := testutils.MustInsertTask(ctx, t, db, ownerID)
	testutils.MustInsertTask(ctx, t, db, ownerID)

	completed := domain.TaskStatusCompleted
	_, err = taskStore.UpdateFields(ctx, first.ID, domain.TaskUpdate{Status: &completed})
	require.NoError(t, err)

	after, err := taskStore.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), after.Total-before.Total)
	assert.Equal(t, int64(1), after.Completed-before.Completed)
	assert.Equal(t, int64(1), after.Pending-before.Pending)
	assert.Equal(t, int64(0), after.InProgress-before.InProgress)

	// Status counts always partition the total
	assert.Equal(t, after.Total, after.Completed+after.InProgress+after.Pending)
}

func TestPostgresTaskStore_BulkOperations(t *testing.T) {
	if !testutils.IsIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	db, err := testutils.GetTestDB()
	require.NoError(t, err, "Failed to connect to test database")
	defer testutils.AssertCloseNoError(t, db)

	ctx := context.Background()
	taskStore := NewPostgresTaskStore(db, nil)
	ownerID := uuid.New()
	testutils.CleanupOwnerTasks(t, db, ownerID)

	first := testutils.MustInsertTask(ctx, t, db, ownerID)
	second := testutils.MustInsertTask(ctx, t, db, ownerID)

	t.Run("BulkUpdateStatus_Returns_Updated_Tasks", func(t *testing.T) {
		updated, err := taskStore.BulkUpdateStatus(ctx,
			[]uuid.UUID{first.ID, uuid.New(), second.ID}, domain.TaskStatusCompleted)
		require.NoError(t, err)
		assert.Len(t, updated, 2, "missing IDs are skipped")
		for _, task := range updated {
			assert.Equal(t, domain.TaskStatusCompleted, task.Status)
		}
	})

	t.Run("BulkUpdateStatus_Empty_Input", func(t *testing.T) {
		updated, err := taskStore.BulkUpdateStatus(ctx, nil, domain.TaskStatusCompleted)
		require.NoError(t, err)
		assert.Empty(t, updated)
	})

	t.Run("BulkUpdateStatus_Invalid_Status", func(t *testing.T) {
		_, err := taskStore.BulkUpdateStatus(ctx, []uuid.UUID{first.ID}, "archived")
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("BulkDelete_Counts_Only_Existing_Rows", func(t *testing.T) {
		deleted, err := taskStore.BulkDelete(ctx, []uuid.UUID{first.ID, uuid.New(), second.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		deleted, err = taskStore.BulkDelete(ctx, []uuid.UUID{first.ID, second.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})
}
