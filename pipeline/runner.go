package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"newsshorts/logger"
)

// ErrRunInProgress is returned when a run is requested while another is in flight.
var ErrRunInProgress = errors.New("pipeline: a run is already in progress")

type runFunc func(ctx context.Context, runID string) (*Result, error)

// Runner serializes pipeline runs and assigns each one an ID.
type Runner struct {
	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup

	run    runFunc
	status *StatusTracker
	newID  func() string
	log    logrus.FieldLogger
}

func NewRunner(p *Pipeline, log logrus.FieldLogger) *Runner {
	return &Runner{
		run:    p.RunWithID,
		status: p.Status(),
		newID:  uuid.NewString,
		log:    logger.OrDiscard(log),
	}
}

func (r *Runner) Status() Status {
	return r.status.Status()
}

func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) acquire() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return "", ErrRunInProgress
	}
	r.running = true
	return r.newID(), nil
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Run executes a run synchronously.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	id, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer r.release()
	return r.run(ctx, id)
}

// Start launches a run in the background and returns its ID immediately.
// ctx bounds the run, so pass a process-lifetime context rather than a
// request context.
func (r *Runner) Start(ctx context.Context, trigger string) (string, error) {
	id, err := r.acquire()
	if err != nil {
		return "", err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release()

		log := r.log.WithFields(logrus.Fields{"run_id": id, "trigger": trigger})
		log.Info("Starting run")
		if _, err := r.run(ctx, id); err != nil {
			log.WithError(err).Error("Run failed")
		}
	}()
	return id, nil
}

// Wait blocks until background runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
