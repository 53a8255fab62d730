package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hupe1980/rankgo/blobstore"
	"github.com/hupe1980/rankgo/internal/config"
	"github.com/hupe1980/rankgo/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// inputSuffix marks topic input files.
const inputSuffix = ".jsonl"

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run [input-dir]",
		Short: "Rank every topic in a directory once",
		Long:  "run ranks every *" + inputSuffix + " file in input-dir (default the current directory) and exits non-zero if any topic fails.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

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
			return a.runDir(ctx, dir, cmd.OutOrStdout())
		},
	}
}

// dirJobs returns one job per topic file in dir.
func dirJobs(ctx context.Context, dir string) ([]runner.Job, error) {
	names, err := blobstore.NewLocalStore(dir).List(ctx, "")
	if err != nil {
		return nil, err
	}

	var jobs []runner.Job
	for _, name := range names {
		if strings.Contains(name, "/") || !strings.HasSuffix(name, inputSuffix) {
			continue
		}
		job, err := runner.FileJob(strings.TrimSuffix(name, inputSuffix), filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (a *app) runDir(ctx context.Context, dir string, out io.Writer) error {
	jobs, err := dirJobs(ctx, dir)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no *%s topics in %s", inputSuffix, dir)
	}

	srvCtx, cancel := context.WithCancel(ctx)
	var eg errgroup.Group
	eg.Go(func() error { return a.serve(srvCtx) })

	reports := a.runner.Run(ctx, jobs)
	cancel()
	if err := eg.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, rep := range reports {
		printReport(out, rep)
		if rep.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d topics failed", failed, len(reports))
	}
	return nil
}

func printReport(w io.Writer, rep runner.Report) {
	if rep.Err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", rep.Topic, rep.Err)
		return
	}
	status := "converged"
	if !rep.Result.Converged {
		status = "not converged"
	}
	fmt.Fprintf(w, "ok   %s: %d nodes, %d edges, %d iterations (%s), v%d -> %s\n",
		rep.Topic, rep.Nodes, rep.Edges, rep.Result.Iterations, status, rep.Version, rep.Output)
}
