// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmdutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grailbio/ideafile/log"
	"github.com/grailbio/ideafile/shutdown"
	"v.io/x/lib/cmdline"
)

// RunnerFunc is an adapter that turns functions taking a context into
// cmdline.Runners. The context is canceled when the process receives
// SIGINT or SIGTERM, and the functions registered with package shutdown
// run once f returns.
type RunnerFunc func(context.Context, *cmdline.Env, []string) error

// Run implements cmdline.Runner.
func (f RunnerFunc) Run(env *cmdline.Env, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Printf("received %v, canceling", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	err := f(ctx, env, args)
	shutdown.Run()
	return err
}
