// Package clock provides the engine's two EngineClock implementations.
//
// Modeled on the teacher's clock package (a settable clock gated by a
// sync.Cond, plus a realtime wall clock): Simulation plays the role of the
// teacher's setclock, and RealTime plays the role of wallclock plus the
// push-source wakeup signal described in the concurrency model.
package clock

import (
	"sync"
	"time"

	"github.com/reactiveflow/tsgraph/engtime"
)

// EngineClock is the read/control surface the evaluation engine drives and
// that node bodies read from via the Context.
type EngineClock interface {
	// EvaluationTime is the logical time currently being processed.
	EvaluationTime() engtime.Time
	// Now is the wall-clock time: equal to EvaluationTime in simulation,
	// actual time in real-time mode.
	Now() time.Time
	// NextCycleEvaluationTime is EvaluationTime + MinTD, used to schedule
	// "immediately after this tick".
	NextCycleEvaluationTime() engtime.Time
	// NextScheduledEvaluationTime is the minimum over all pending work.
	NextScheduledEvaluationTime() engtime.Time
	// UpdateNextScheduledEvaluationTime lowers the next scheduled time if t
	// is earlier than what is currently recorded.
	UpdateNextScheduledEvaluationTime(t engtime.Time)
	// AdvanceToNextScheduledTime blocks (in real-time mode) or jumps
	// (in simulation) until NextScheduledEvaluationTime is reached, or the
	// clock has been signalled by an external push event.
	AdvanceToNextScheduledTime()
	// SetEvaluationTime forces the current evaluation time; used by the
	// engine's cycle loop once it has decided the next time to process.
	SetEvaluationTime(t engtime.Time)
	// MarkPushNodeRequiresScheduling is called by external producers, under
	// their own lock, to wake a real-time clock that may be sleeping past a
	// newly arrived event's delivery time.
	MarkPushNodeRequiresScheduling()
	// StartTime is the fixed lower bound of evaluation time for this clock.
	StartTime() engtime.Time
}

// Simulation is an EngineClock whose evaluation time only moves when told
// to, via AdvanceToNextScheduledTime or SetEvaluationTime. It is the
// back-test clock: "now" always equals the current evaluation time.
type Simulation struct {
	mu       sync.Mutex
	cond     *sync.Cond
	start    engtime.Time
	evalTime engtime.Time
	nextTime engtime.Time
}

// NewSimulation returns a Simulation clock starting at start.
func NewSimulation(start engtime.Time) *Simulation {
	c := &Simulation{
		start:    start,
		evalTime: start,
		nextTime: engtime.MaxTime,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Simulation) StartTime() engtime.Time { return c.start }

func (c *Simulation) EvaluationTime() engtime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evalTime
}

func (c *Simulation) Now() time.Time {
	return c.EvaluationTime().AsTime()
}

func (c *Simulation) NextCycleEvaluationTime() engtime.Time {
	return c.EvaluationTime().Add(engtime.MinTD)
}

func (c *Simulation) NextScheduledEvaluationTime() engtime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextTime
}

func (c *Simulation) UpdateNextScheduledEvaluationTime(t engtime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	floor := c.evalTime.Add(engtime.MinTD)
	if t < floor {
		t = floor
	}
	if t < c.start {
		t = c.start
	}
	if t < c.nextTime {
		c.nextTime = t
		c.cond.Broadcast()
	}
}

// AdvanceToNextScheduledTime jumps straight to the recorded next scheduled
// time: simulation mode never sleeps.
func (c *Simulation) AdvanceToNextScheduledTime() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nextTime > c.evalTime {
		c.evalTime = c.nextTime
	}
	c.nextTime = engtime.MaxTime
}

func (c *Simulation) SetEvaluationTime(t engtime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.evalTime {
		panic("clock: cannot set evaluation time backwards")
	}
	c.evalTime = t
}

// MarkPushNodeRequiresScheduling broadcasts on the condition variable, which
// nothing in Simulation waits on, so it has no effect: a queued push message
// is drained at the next cycle that something else has scheduled.
func (c *Simulation) MarkPushNodeRequiresScheduling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cond.Broadcast()
}

// RealTime is an EngineClock whose evaluation time tracks wall time.
// AdvanceToNextScheduledTime sleeps until either the scheduled time is
// reached or MarkPushNodeRequiresScheduling is called by an external
// producer, exactly as the concurrency model requires.
type RealTime struct {
	mu       sync.Mutex
	cond     *sync.Cond
	start    engtime.Time
	evalTime engtime.Time
	nextTime engtime.Time
	nowFn    func() time.Time
}

// NewRealTime returns a RealTime clock anchored at start.
func NewRealTime(start engtime.Time) *RealTime {
	c := &RealTime{
		start:    start,
		evalTime: start,
		nextTime: engtime.MaxTime,
		nowFn:    time.Now,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *RealTime) StartTime() engtime.Time { return c.start }

func (c *RealTime) EvaluationTime() engtime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evalTime
}

func (c *RealTime) Now() time.Time { return c.nowFn() }

func (c *RealTime) NextCycleEvaluationTime() engtime.Time {
	return c.EvaluationTime().Add(engtime.MinTD)
}

func (c *RealTime) NextScheduledEvaluationTime() engtime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextTime
}

func (c *RealTime) UpdateNextScheduledEvaluationTime(t engtime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.nextTime {
		c.nextTime = t
		c.cond.Broadcast()
	}
}

// AdvanceToNextScheduledTime sleeps until the scheduled time arrives or a
// push-source signal wakes it early, then snaps evaluation time to the
// earlier of the scheduled time and now.
func (c *RealTime) AdvanceToNextScheduledTime() {
	c.mu.Lock()
	for {
		if c.nextTime == engtime.MaxTime {
			c.cond.Wait()
			continue
		}
		now := engtime.FromTime(c.nowFn())
		if now >= c.nextTime {
			c.evalTime = c.nextTime
			c.nextTime = engtime.MaxTime
			c.mu.Unlock()
			return
		}
		wait := c.nextTime.AsTime().Sub(c.nowFn())
		timer := time.AfterFunc(wait, c.cond.Broadcast)
		c.cond.Wait()
		timer.Stop()
	}
}

func (c *RealTime) SetEvaluationTime(t engtime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.evalTime {
		panic("clock: cannot set evaluation time backwards")
	}
	c.evalTime = t
}

// MarkPushNodeRequiresScheduling pulls the next scheduled time forward to
// now (never to or before the current evaluation time) and wakes a
// sleeping AdvanceToNextScheduledTime, so the next cycle starts at once.
func (c *RealTime) MarkPushNodeRequiresScheduling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := engtime.FromTime(c.nowFn())
	if floor := c.evalTime.Add(engtime.MinTD); now < floor {
		now = floor
	}
	if now < c.nextTime {
		c.nextTime = now
	}
	c.cond.Broadcast()
}
