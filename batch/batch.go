// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package batch runs many independent file transforms concurrently.
// Each transform is a task.Task; the files are distinct, so tasks share
// no state and run in any order.
package batch

import (
	"context"
	"runtime"

	"github.com/grailbio/ideafile/cryptogram"
	"github.com/grailbio/ideafile/errors"
	"github.com/grailbio/ideafile/log"
	"github.com/grailbio/ideafile/sync/multierror"
	"github.com/grailbio/ideafile/task"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// B is a batch runner.
type B struct {
	// Limit is the maximum number of concurrent tasks. Zero selects
	// the number of available CPUs.
	Limit int
	// FailFast cancels the remaining tasks after the first failure.
	// Otherwise every task runs and all failures are returned.
	FailFast bool
	// Reporter, if not nil, receives batch events.
	Reporter Reporter
}

// Result is the outcome of one request.
type Result struct {
	Request task.Request
	cryptogram.Result
	// Started tells whether the request was submitted. Outputs of
	// requests that never started are untouched.
	Started bool
	// Err is nil if the transform succeeded.
	Err error
}

// Run executes reqs and returns one result per request, in request
// order. The returned error is a *multierror.MultiError holding every
// failure, or nil if all requests succeeded. Requests that never start
// because ctx is done (or, with FailFast, because another request
// failed) have errors of kind errors.Canceled.
func (b B) Run(ctx context.Context, reqs []task.Request) ([]Result, error) {
	limit := b.Limit
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	rep := b.Reporter
	if rep == nil {
		rep = nopReporter{}
	}
	rep.Init(len(reqs))
	defer rep.Complete()

	var (
		results = make([]Result, len(reqs))
		errs    = multierror.New(0)
		first   errors.Once
		sem     = semaphore.NewWeighted(int64(limit))
		g       *errgroup.Group
		gctx    = ctx
	)
	if b.FailFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}
	for i := range reqs {
		results[i].Request = reqs[i]
	}
	started := 0
	for ; started < len(reqs); started++ {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		i := started
		g.Go(func() error {
			defer sem.Release(1)
			t := task.Submit(gctx, reqs[i])
			results[i].Started = true
			rep.Begin(i, t)
			res, err := t.Wait()
			results[i].Result, results[i].Err = res, err
			rep.End(i, err)
			if err != nil {
				errs.Add(err)
				first.Set(err)
			}
			return err
		})
	}
	_ = g.Wait()
	if err := first.Err(); err != nil && b.FailFast {
		log.Error.Printf("batch: canceled remaining requests after: %v", err)
	}
	for i := started; i < len(reqs); i++ {
		err := errors.E(errors.Canceled, reqs[i].Input, "not started")
		results[i].Err = err
		errs.Add(err)
	}
	return results, errs.ErrorOrNil()
}
