package pipeline

import (
	"context"

	"github.com/google/uuid"

	"vidgrab/internal/model"
)

// Task is a download running on its own goroutine.
type Task struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	res    Result
	err    error
}

// Start runs Download for req in the background. The returned task is
// already finished with ErrBusy when another download is in flight.
// Reporter events carry the task ID as job ID.
func (s *Service) Start(ctx context.Context, req model.DownloadRequest) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if s.jobID != "" {
		t.ID = s.jobID
	}

	if !s.busy.CompareAndSwap(false, true) {
		t.res, t.err = Result{URL: req.URL}, ErrBusy
		cancel()
		close(t.done)
		return t
	}

	go func() {
		defer close(t.done)
		defer cancel()
		defer s.busy.Store(false)
		t.res, t.err = s.download(ctx, req, t.ID)
	}()
	return t
}

// Cancel stops the task; the running subprocess is killed.
func (t *Task) Cancel() { t.cancel() }

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task error once Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Result returns the task result once Done is closed.
func (t *Task) Result() Result {
	select {
	case <-t.done:
		return t.res
	default:
		return Result{}
	}
}

// Wait blocks until the task finishes.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.res, t.err
}
