package qsim

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/theapemachine/errnie"
)

// Worker executes jobs taken from its pool.
type Worker struct {
	id   int
	pool *Pool
}

func (w *Worker) run() {
	for {
		select {
		case <-w.pool.ctx.Done():
			return
		case job := <-w.pool.jobs:
			outcome := w.processJob(job)
			w.pool.metrics.recordJobExecution(job.StartTime, len(outcome.Records), outcome.Error == nil)
			job.result <- outcome
		}
	}
}

func (w *Worker) processJob(job Job) Outcome {
	outcome := Outcome{
		JobID:   job.ID,
		Records: make([]MeasurementRecord, 0, job.Shots),
	}

	for shot := 0; shot < job.Shots; shot++ {
		if err := job.ctx.Err(); err != nil {
			return job.fail(fmt.Errorf("job %s cancelled after %d shots: %w", job.ID, shot, err))
		}

		result, err := Run(job.Gates, job.rng)
		if err != nil {
			errnie.Info(
				"worker %d: job %s shot %d failed: %v\n%s",
				w.id, job.ID, shot, err, spew.Sdump(job.Gates),
			)
			return job.fail(fmt.Errorf("job %s shot %d: %w", job.ID, shot, err))
		}

		outcome.Records = append(outcome.Records, result.Record)
		outcome.State = result.State
	}

	return outcome
}
