package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasktally/core/internal/domain/entities"
	"github.com/tasktally/core/internal/infrastructure/logger"
	"github.com/tasktally/core/internal/ports"
)

// TaskService handles task operations. Ownership is enforced uniformly on
// read, edit and delete: a task is only ever visible to and mutable by the
// user it was created under.
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// Create inserts a task for the owner. Whitespace-only content is a silent
// no-op: nothing is inserted and no error is returned, matching the
// dashboard form's submit-and-redirect flow.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, content string) (*entities.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	task := &entities.Task{
		Content:   content,
		UpdatedAt: time.Now().UTC(),
		OwnerID:   ownerID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "owner_id", ownerID)

	return task, nil
}

// Get loads a task, enforcing ownership.
func (s *TaskService) Get(ctx context.Context, id int64, requesterID uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !task.OwnedBy(requesterID) {
		s.logger.Warnw("Task access by non-owner", "task_id", id, "requester_id", requesterID)
		return nil, entities.ErrUnauthorized
	}

	return task, nil
}

// Edit replaces a task's content and refreshes its update timestamp.
func (s *TaskService) Edit(ctx context.Context, id int64, requesterID uuid.UUID, content string) (*entities.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, entities.ErrEmptyContent
	}

	task, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	task.Content = content
	task.Touch()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated", "task_id", task.ID, "owner_id", task.OwnerID)

	return task, nil
}

// Delete removes a task after checking it belongs to the requester.
func (s *TaskService) Delete(ctx context.Context, id int64, requesterID uuid.UUID) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !task.OwnedBy(requesterID) {
		s.logger.Warnw("Task delete by non-owner", "task_id", id, "requester_id", requesterID)
		return entities.ErrUnauthorized
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Infow("Task deleted", "task_id", id, "owner_id", requesterID)

	return nil
}

// ListByOwner returns the owner's tasks ordered by update time.
func (s *TaskService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}
