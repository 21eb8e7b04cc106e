package paperless

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

var (
	// ErrTaskFailed is returned by Wait when the task ended in FAILURE or REVOKED
	ErrTaskFailed = errors.New("paperless task failed")
	// ErrTaskNotDone is returned by Wait when the timeout elapsed first
	ErrTaskNotDone = errors.New("paperless task still running")
)

// TasksService provides access to /api/tasks/.
type TasksService struct {
	transport *Transport
}

// List returns the tasks matching query. The endpoint is not paginated.
func (s *TasksService) List(ctx context.Context, query *TaskListQuery) ([]Task, error) {
	tasks := make([]Task, 0)
	if err := s.transport.Get(ctx, "/api/tasks/", &tasks, WithParams(query)); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Retrieve returns the task with the given numeric id.
func (s *TasksService) Retrieve(ctx context.Context, id int, opts ...RequestOption) (*Task, error) {
	var task Task
	if err := s.transport.Get(ctx, fmt.Sprintf("/api/tasks/%d/", id), &task, opts...); err != nil {
		return nil, err
	}
	return &task, nil
}

// Acknowledge marks the given tasks as seen.
func (s *TasksService) Acknowledge(ctx context.Context, ids []int, opts ...RequestOption) (*AcknowledgeResponse, error) {
	var resp AcknowledgeResponse
	if err := s.transport.Post(ctx, "/api/tasks/acknowledge/", AcknowledgeRequest{Tasks: ids}, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Run starts a background job such as "train_classifier" or
// "check_sanity".
func (s *TasksService) Run(ctx context.Context, body RunTaskRequest, opts ...RequestOption) (*Task, error) {
	var task Task
	if err := s.transport.Post(ctx, "/api/tasks/run/", body, &task, opts...); err != nil {
		return nil, err
	}
	return &task, nil
}

// WaitOptions controls how Wait polls.
type WaitOptions struct {
	// InitialInterval defaults to 500ms
	InitialInterval time.Duration
	// MaxInterval defaults to 5s
	MaxInterval time.Duration
	// Timeout of zero waits until ctx is done
	Timeout time.Duration
}

var errTaskPending = errors.New("task pending")

// Wait polls the task with the given UUID, as returned by Upload, until it
// reaches a final state. A failed poll is returned at once. When the task
// ends in FAILURE or REVOKED the task is returned together with
// ErrTaskFailed.
func (s *TasksService) Wait(ctx context.Context, taskID string, opts WaitOptions) (*Task, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	if opts.InitialInterval > 0 {
		b.InitialInterval = opts.InitialInterval
	}
	b.MaxInterval = 5 * time.Second
	if opts.MaxInterval > 0 {
		b.MaxInterval = opts.MaxInterval
	}
	b.MaxElapsedTime = opts.Timeout

	var task *Task
	poll := func() error {
		tasks, err := s.List(ctx, &TaskListQuery{TaskID: taskID})
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(tasks) == 0 || !tasks[0].Status.IsDone() {
			return errTaskPending
		}
		task = &tasks[0]
		return nil
	}

	err := backoff.RetryNotify(poll, backoff.WithContext(b, ctx), func(_ error, next time.Duration) {
		s.transport.logger.Debug().
			Str("task", taskID).
			Dur("next", next).
			Msg("Task not finished yet")
	})
	if err != nil {
		if errors.Is(err, errTaskPending) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotDone, taskID)
		}
		return nil, err
	}

	if task.Status != TaskSuccess {
		return task, fmt.Errorf("%w: %s: %s", ErrTaskFailed, taskID, task.Status)
	}
	return task, nil
}
