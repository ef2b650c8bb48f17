package qsim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// blockGate holds every run of the test-block kind until it is closed.
var blockGate chan struct{}

func blockingKind() Kind {
	return registerOnce(KindDef{
		Name:  "test-block",
		Shape: OneQubit,
		Apply: func(*Execution, Gate) error {
			<-blockGate
			return nil
		},
	})
}

func TestPoolSample(t *testing.T) {
	Convey("Given a seeded sampling pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		pool := NewPool(ctx, NewConfig().WithSeed(4))

		Reset(func() {
			pool.Close()
			cancel()
		})

		Convey("A measured |+⟩ is a fair coin", func() {
			c := NewCircuit().H(0).M(0)

			histogram, err := pool.Sample(ctx, c, 10000)
			So(err, ShouldBeNil)
			So(histogram.Shots, ShouldEqual, 10000)
			So(histogram.Counts["0"]+histogram.Counts["1"], ShouldEqual, 10000)
			So(math.Abs(float64(histogram.Counts["1"]-5000)), ShouldBeLessThan, 100)
			So(c.History().Len(), ShouldEqual, 10000)
		})

		Convey("A Bell pair only yields correlated outcomes", func() {
			histogram, err := pool.Sample(ctx, NewCircuit().H(0).CX(0, 1).M(0, 1), 1000)
			So(err, ShouldBeNil)
			So(len(histogram.Counts), ShouldEqual, 2)
			So(histogram.Counts["00"]+histogram.Counts["11"], ShouldEqual, 1000)
			So(histogram.MostCommon(2), ShouldHaveLength, 2)
		})

		Convey("Campaigns replay under the same seed", func() {
			c := NewCircuit().H(0, 1, 2).M(All())

			first, err := pool.Sample(ctx, c, 2000)
			So(err, ShouldBeNil)

			other := NewPool(ctx, NewConfig().WithSeed(4))
			defer other.Close()

			second, err := other.Sample(ctx, c, 2000)
			So(err, ShouldBeNil)
			So(second.Counts, ShouldResemble, first.Counts)
		})

		Convey("Zero shots schedule nothing", func() {
			c := NewCircuit().H(0).M(0)
			histogram, err := pool.Sample(ctx, c, 0)
			So(err, ShouldBeNil)
			So(histogram.Counts, ShouldBeEmpty)
			So(c.History().Len(), ShouldEqual, 0)
		})

		Convey("Negative shots are rejected", func() {
			_, err := pool.Sample(ctx, NewCircuit().M(0), -1)
			So(err, ShouldNotBeNil)
		})

		Convey("A failing campaign leaves the history untouched", func() {
			c := NewCircuit().H(0).X(-3).M(0)
			_, err := pool.Sample(ctx, c, 1000)
			So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)
			So(c.History().Len(), ShouldEqual, 0)

			So(pool.Metrics().ExportMetrics()["failed_jobs"], ShouldBeGreaterThan, int64(0))
		})

		Convey("An oversized circuit fails the campaign instead of the process", func() {
			c := NewCircuit().H(64).M(0)
			_, err := pool.Sample(ctx, c, 10)
			So(errors.Is(err, ErrTooManyQubits), ShouldBeTrue)
			So(c.History().Len(), ShouldEqual, 0)
		})

		Convey("A builder error is returned before scheduling", func() {
			_, err := pool.Sample(ctx, NewCircuit().X("q"), 10)
			So(errors.Is(err, ErrSpecType), ShouldBeTrue)
			So(pool.Metrics().ExportMetrics()["job_count"], ShouldEqual, int64(0))
		})

		Convey("Metrics count jobs and shots", func() {
			_, err := pool.Sample(ctx, NewCircuit().X(0).M(0), 600)
			So(err, ShouldBeNil)

			exported := pool.Metrics().ExportMetrics()
			So(exported["worker_count"], ShouldEqual, 4)
			So(exported["job_count"], ShouldEqual, int64(3))
			So(exported["shot_count"], ShouldEqual, int64(600))
			So(exported["success_rate"], ShouldEqual, 1.0)
		})
	})
}

func TestPoolSchedule(t *testing.T) {
	Convey("Given a pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		pool := NewPool(ctx, nil)

		Reset(func() {
			pool.Close()
			cancel()
		})

		gates := NewCircuit().X(0).M(0).Gates()

		Convey("A scheduled job reports its records", func() {
			outcome := <-pool.Schedule(NewJob(ctx, "single", gates, 5, nil))
			So(outcome.Error, ShouldBeNil)
			So(outcome.JobID, ShouldEqual, "single")
			So(outcome.Records, ShouldHaveLength, 5)
			So(outcome.Records[4], ShouldResemble, MeasurementRecord{1})
			So(outcome.State.Amplitude(1), ShouldEqual, complex(1, 0))
		})

		Convey("A zero-value job is completed with defaults", func() {
			outcome := <-pool.Schedule(Job{ID: "bare", Gates: gates, Shots: 1})
			So(outcome.Error, ShouldBeNil)
			So(outcome.Records, ShouldHaveLength, 1)
		})

		Convey("A cancelled job fails with its context error", func() {
			jobCtx, jobCancel := context.WithCancel(ctx)
			jobCancel()

			outcome := <-pool.Schedule(NewJob(jobCtx, "cancelled", gates, 5, nil))
			So(errors.Is(outcome.Error, context.Canceled), ShouldBeTrue)
		})

		Convey("A closed pool refuses work", func() {
			pool.Close()

			outcome := <-pool.Schedule(NewJob(ctx, "late", gates, 1, nil))
			So(errors.Is(outcome.Error, ErrPoolClosed), ShouldBeTrue)

			_, err := pool.Sample(ctx, NewCircuit().X(0).M(0), 10)
			So(errors.Is(err, ErrPoolClosed), ShouldBeTrue)
		})
	})

	Convey("Given a pool whose only worker is stuck", t, func() {
		blockGate = make(chan struct{})
		stuck := NewCircuit().Apply(blockingKind(), nil, 0).Gates()

		config := NewConfig()
		config.Workers = 1
		config.SchedulingTimeout = 100 * time.Millisecond
		pool := NewPool(context.Background(), config)

		var outcomes []<-chan Outcome
		for i := 0; i < 13; i++ {
			outcomes = append(outcomes, pool.Schedule(NewJob(context.Background(), "stuck", stuck, 1, nil)))
		}

		Convey("Jobs past the queue capacity time out", func() {
			timedOut := 0
			for _, ch := range outcomes[11:] {
				if outcome := <-ch; errors.Is(outcome.Error, ErrSchedulingTimeout) {
					timedOut++
				}
			}
			So(timedOut, ShouldEqual, 2)
			So(pool.Metrics().ExportMetrics()["scheduling_failures"], ShouldEqual, int64(2))

			close(blockGate)
			pool.Close()

			for _, ch := range outcomes[:11] {
				outcome := <-ch
				So(outcome.Error == nil || errors.Is(outcome.Error, ErrPoolClosed), ShouldBeTrue)
			}
		})
	})
}

func TestNewPoolConfig(t *testing.T) {
	Convey("Given an invalid config", t, func() {
		config := NewConfig()
		config.Workers = 0
		config.BatchSize = -1

		pool := NewPool(context.Background(), config)
		defer pool.Close()

		Convey("The pool falls back to defaults", func() {
			So(pool.Metrics().ExportMetrics()["worker_count"], ShouldEqual, 4)
			So(pool.config.BatchSize, ShouldEqual, 256)
			So(config.Workers, ShouldEqual, 0)
		})
	})
}
