// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package batch

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/grailbio/ideafile/cryptogram"
	"github.com/grailbio/ideafile/data"
	"github.com/grailbio/ideafile/log"
	"github.com/grailbio/ideafile/task"
)

// A Reporter receives events from a running batch. Its methods may be
// called concurrently.
type Reporter interface {
	// Init is called before any task starts with the number of
	// requests in the batch.
	Init(n int)
	// Begin is called when request i has been submitted as task t.
	Begin(i int, t *task.Task)
	// End is called when request i has finished with err.
	End(i int, err error)
	// Complete is called after every task has finished.
	Complete()
}

type nopReporter struct{}

func (nopReporter) Init(int)              {}
func (nopReporter) Begin(int, *task.Task) {}
func (nopReporter) End(int, error)        {}
func (nopReporter) Complete()             {}

// NewLogReporter returns a reporter that logs the status messages of
// every task at the given level, each prefixed by the task's input.
func NewLogReporter(level log.Level) Reporter {
	return &logReporter{level: level}
}

type logReporter struct {
	level log.Level
	wg    sync.WaitGroup
}

func (*logReporter) Init(int) {}

func (r *logReporter) Begin(i int, t *task.Task) {
	rep := cryptogram.NewLogReporter(t.Request().Input, r.level)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for msg := range t.Status() {
			rep.Status(msg)
		}
	}()
}

func (*logReporter) End(int, error) {}

// Complete waits until every task's status stream is drained.
func (r *logReporter) Complete() { r.wg.Wait() }

// NewProgressReporter returns a reporter that periodically writes the
// number of queued, running and done tasks to w, together with the
// overall progress and an estimate of the time remaining. Each
// finished task is reported on its own line.
func NewProgressReporter(w io.Writer, name string, interval time.Duration) Reporter {
	return &progressReporter{
		w:        w,
		name:     name,
		interval: interval,
		running:  make(map[int]*task.Task),
	}
}

type progressReporter struct {
	w        io.Writer
	name     string
	interval time.Duration

	mu           sync.Mutex
	n, done      int
	start        time.Time
	running      map[int]*task.Task
	ticker       *time.Ticker
	tickerDone   chan struct{}
	lineInFlight bool
}

func (r *progressReporter) Init(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n = n
	r.start = time.Now()
	if r.interval <= 0 {
		return
	}
	r.ticker = time.NewTicker(r.interval)
	r.tickerDone = make(chan struct{})
	go func() {
		for {
			select {
			case <-r.ticker.C:
				r.mu.Lock()
				r.printStatus(time.Now())
				r.mu.Unlock()
			case <-r.tickerDone:
				return
			}
		}
	}()
}

func (r *progressReporter) Begin(i int, t *task.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[i] = t
}

func (r *progressReporter) End(i int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.running[i]
	delete(r.running, i)
	r.done++
	r.clearLine()
	if t == nil {
		return
	}
	req := t.Request()
	if err != nil {
		fmt.Fprintf(r.w, "%s: %s: %v\n", r.name, req.Input, err)
		return
	}
	res, _ := t.Wait()
	fmt.Fprintf(r.w, "%s: %s -> %s (%s, %s)\n", r.name, req.Input, req.Output,
		data.Size(res.OutputSize), data.Rate(data.Size(res.InputSize), res.Elapsed))
}

func (r *progressReporter) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticker != nil {
		r.ticker.Stop()
		close(r.tickerDone)
	}
	r.clearLine()
}

// progress returns the overall fraction of work done, counting each
// task equally. r.mu must be held.
func (r *progressReporter) progress() float64 {
	if r.n == 0 {
		return 1
	}
	p := float64(r.done)
	for _, t := range r.running {
		p += t.Progress()
	}
	return p / float64(r.n)
}

// printStatus writes a single, carriage-return terminated status line.
// r.mu must be held.
func (r *progressReporter) printStatus(now time.Time) {
	queued := r.n - r.done - len(r.running)
	fmt.Fprintf(r.w, "%s: (queued: %d -> running: %d -> done: %d) %.1f%% %v %s \r",
		r.name, queued, len(r.running), r.done, 100*r.progress(),
		now.Sub(r.start).Round(time.Second), timeLeft(now.Sub(r.start), r.progress()))
	r.lineInFlight = true
}

func (r *progressReporter) clearLine() {
	if r.lineInFlight {
		fmt.Fprint(r.w, "\n")
		r.lineInFlight = false
	}
}

// timeLeft extrapolates the remaining time from the elapsed time and
// the fraction of work done, assuming a constant rate.
func timeLeft(elapsed time.Duration, fraction float64) string {
	if fraction <= 0 {
		return "(? left)"
	}
	if fraction >= 1 {
		return "(0s left)"
	}
	left := time.Duration(float64(elapsed) * (1 - fraction) / fraction)
	return fmt.Sprintf("(~%v left)", left.Round(time.Second))
}
