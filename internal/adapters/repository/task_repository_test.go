package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktally/core/internal/domain/entities"
)

func TestTaskRepositoryCRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db.Tasks)
	ctx := context.Background()
	owner := uuid.New()

	task := &entities.Task{Content: "buy milk", OwnerID: owner}
	require.NoError(t, repo.Create(ctx, task))
	assert.Positive(t, task.ID)
	assert.False(t, task.UpdatedAt.IsZero())

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Content)
	assert.Equal(t, owner, got.OwnerID)

	got.Content = "buy oat milk"
	got.Touch()
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", again.Content)

	require.NoError(t, repo.Delete(ctx, task.ID))

	_, err = repo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestTaskRepositoryNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db.Tasks)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 12345)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	err = repo.Update(ctx, &entities.Task{ID: 12345, Content: "ghost", OwnerID: uuid.New()})
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	err = repo.Delete(ctx, 12345)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestTaskRepositoryListByOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db.Tasks)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &entities.Task{Content: content, OwnerID: alice}))
	}
	require.NoError(t, repo.Create(ctx, &entities.Task{Content: "not yours", OwnerID: bob}))

	tasks, err := repo.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "first", tasks[0].Content)
	assert.Equal(t, "second", tasks[1].Content)
	assert.Equal(t, "third", tasks[2].Content)

	tasks, err = repo.ListByOwner(ctx, bob)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "not yours", tasks[0].Content)
}
