package qsim

import (
	"context"
	"math/rand/v2"
	"time"
)

/*
Job is a batch of shots of one gate list. Every job carries its own random
source, so jobs running on different workers never share random state.
*/
type Job struct {
	ID        string
	Gates     []Gate
	Shots     int
	StartTime time.Time

	ctx    context.Context
	rng    *rand.Rand
	result chan Outcome
}

// Outcome is what a worker reports for a job.
type Outcome struct {
	JobID   string
	Records []MeasurementRecord
	State   *StateVector // final state of the last shot
	Error   error
}

// NewJob prepares a job; a nil rng selects an entropy-seeded source.
func NewJob(ctx context.Context, id string, gates []Gate, shots int, rng *rand.Rand) Job {
	if rng == nil {
		rng = NewRand(nil)
	}

	return Job{
		ID:     id,
		Gates:  gates,
		Shots:  shots,
		ctx:    ctx,
		rng:    rng,
		result: make(chan Outcome, 1),
	}
}

func (j Job) fail(err error) Outcome {
	return Outcome{JobID: j.ID, Error: err}
}
