// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package task runs file transforms asynchronously. A Task exposes a
// stream of status messages, a progress fraction and cancellation;
// none of these ever block the transform itself.
package task

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/grailbio/ideafile/crypto/modes"
	"github.com/grailbio/ideafile/cryptogram"
	"github.com/grailbio/ideafile/errors"
	"github.com/grailbio/ideafile/log"
)

// StatusBuffer is the number of undelivered status messages a task
// retains. When the buffer is full, the oldest message is dropped.
const StatusBuffer = 32

// Request describes a file transform.
type Request struct {
	Input, Output string
	Passphrase    string
	Encrypt       bool
	Mode          modes.Kind
	ChunkSize     int
}

func (r Request) String() string {
	op := "decrypt"
	if r.Encrypt {
		op = "encrypt"
	}
	return op + "(" + r.Mode.String() + ") " + r.Input + " -> " + r.Output
}

// Task is a handle to a running transform.
type Task struct {
	// progress holds the bits of a float64. It is first in the struct
	// for 64-bit alignment.
	progress uint64

	req    Request
	cancel context.CancelFunc
	status chan string
	done   chan struct{}

	// res and err are set before done is closed.
	res cryptogram.Result
	err error
}

// Submit starts the transform described by req on a new goroutine and
// returns its handle. The task is canceled when ctx is done.
func Submit(ctx context.Context, req Request) *Task {
	t := newTask(req, StatusBuffer)
	ctx, t.cancel = context.WithCancel(ctx)
	go t.run(ctx)
	return t
}

func newTask(req Request, buffer int) *Task {
	return &Task{
		req:    req,
		cancel: func() {},
		status: make(chan string, buffer),
		done:   make(chan struct{}),
	}
}

func (t *Task) run(ctx context.Context) {
	defer close(t.done)
	defer close(t.status)
	defer t.cancel()
	log.Debug.Printf("task %v: start", t.req)
	t.res, t.err = cryptogram.Transform(ctx, cryptogram.Options{
		Input:      t.req.Input,
		Output:     t.req.Output,
		Passphrase: t.req.Passphrase,
		Encrypt:    t.req.Encrypt,
		Mode:       t.req.Mode,
		ChunkSize:  t.req.ChunkSize,
		Reporter:   reporter{t},
	})
	if t.err != nil {
		log.Debug.Printf("task %v: %v", t.req, t.err)
		reporter{t}.Status(failureStatus(t.err))
		return
	}
	log.Debug.Printf("task %v: done in %s", t.req, t.res.Elapsed)
}

// CanceledStatus is the last status message of a canceled task.
const CanceledStatus = "The operation was cancelled!"

// failureStatus returns the last status message of a task that failed
// with err.
func failureStatus(err error) string {
	if errors.Is(errors.Canceled, err) {
		return CanceledStatus
	}
	return "Error: " + err.Error()
}

// Request returns the request the task was submitted with.
func (t *Task) Request() Request { return t.req }

// Status returns the task's status messages. The channel is closed
// when the task finishes; a failed task ends it with an error message
// or CanceledStatus. Slow consumers lose the oldest messages.
func (t *Task) Status() <-chan string { return t.status }

// Progress returns the fraction of the data processed so far.
func (t *Task) Progress() float64 {
	return math.Float64frombits(atomic.LoadUint64(&t.progress))
}

// Cancel requests cancellation. It does not wait for the task to stop.
func (t *Task) Cancel() { t.cancel() }

// Done returns a channel that is closed when the task finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait waits for the task to finish and returns its result.
func (t *Task) Wait() (cryptogram.Result, error) {
	<-t.done
	return t.res, t.err
}

type reporter struct{ *Task }

func (r reporter) Status(msg string) {
	for {
		select {
		case r.status <- msg:
			return
		default:
		}
		select {
		case <-r.status:
		default:
		}
	}
}

func (r reporter) Progress(f float64) {
	atomic.StoreUint64(&r.progress, math.Float64bits(f))
}
