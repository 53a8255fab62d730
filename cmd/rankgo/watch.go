package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hupe1980/rankgo/internal/config"
	"github.com/hupe1980/rankgo/internal/watch"
	"github.com/hupe1980/rankgo/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	var debounce = watch.DefaultDebounce

	cmd := &cobra.Command{
		Use:   "watch <input-dir>",
		Short: "Rank topics whenever their input files change",
		Long:  "watch ranks every topic in input-dir, then re-ranks a topic whenever its file changes and deletes its output when the file is removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w, err := watch.New(args[0], inputSuffix, debounce)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer func() {
				go func() {
					for range w.Changes {
					}
				}()
				w.Stop()
			}()

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error { return a.serve(ctx) })
			eg.Go(func() error { return a.watch(ctx, w) })
			return eg.Wait()
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is ranked")
	return cmd
}

// watch ranks every existing topic, then follows w until ctx is done.
func (a *app) watch(ctx context.Context, w *watch.Watcher) error {
	jobs, err := dirJobs(ctx, w.Dir)
	if err != nil {
		return err
	}
	for _, rep := range a.runner.Run(ctx, jobs) {
		if rep.Err != nil {
			a.logger.WarnContext(ctx, "initial rank failed", "topic", rep.Topic, "error", rep.Err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			a.logger.WarnContext(ctx, "watch error", "error", err)
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			a.apply(ctx, change)
		}
	}
}

func (a *app) apply(ctx context.Context, change watch.Change) {
	logger := a.logger.WithTopic(change.Topic)

	if change.Kind == watch.ChangeRemoved {
		name := a.runner.OutputName(change.Topic)
		if err := a.sink.Delete(ctx, name); err != nil {
			logger.ErrorContext(ctx, "delete output failed", "output", name, "error", err)
			return
		}
		logger.InfoContext(ctx, "topic removed", "output", name)
		return
	}

	job, err := runner.FileJob(change.Topic, change.File)
	if err != nil {
		// Removed between the event and now; the next event cleans up.
		logger.WarnContext(ctx, "topic input unavailable", "file", change.File, "error", err)
		return
	}
	rep := a.runner.RunOne(ctx, job)
	if rep.Err == nil {
		logger.InfoContext(ctx, "topic ranked", "version", rep.Version, "iterations", rep.Result.Iterations)
	}
}
