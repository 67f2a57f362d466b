package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/soocke/productivity-recorder/domain/session"
	"github.com/soocke/productivity-recorder/ui/presenter"
)

type recordFlags struct {
	task     string
	start    string
	end      string
	minutes  string
	duration time.Duration
}

func newRecordCmd(e *env) *cobra.Command {
	var f recordFlags
	c := &cobra.Command{
		Use:   "record",
		Short: "Record one session headless until interrupted or the duration elapses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), e, f, cmd.OutOrStdout())
		},
	}
	c.Flags().StringVar(&f.task, "task", "", "task description stored in the metadata")
	c.Flags().StringVar(&f.start, "start", "", "allowed start ("+session.TimeLayout+", default now)")
	c.Flags().StringVar(&f.end, "end", "", "allowed end ("+session.TimeLayout+", default one hour after start)")
	c.Flags().StringVar(&f.minutes, "minutes", "", "stop after this many recorded minutes")
	c.Flags().DurationVar(&f.duration, "duration", 0, "stop after this much recorded time (overrides --minutes)")
	return c
}

func runRecord(ctx context.Context, e *env, f recordFlags, out io.Writer) error {
	now := time.Now()
	if f.start == "" {
		f.start = now.Format(session.TimeLayout)
	}
	if f.end == "" {
		if t, err := time.ParseInLocation(session.TimeLayout, f.start, time.Local); err == nil {
			now = t
		}
		f.end = now.Add(time.Hour).Format(session.TimeLayout)
	}
	req, err := session.ParseRequest(f.task, f.start, f.end, f.minutes)
	if err != nil {
		return err
	}
	if f.duration > 0 {
		req.Duration = f.duration
	}

	ctrl := e.newController()
	defer closeController(ctrl, e.logger)
	e.watchConfig(ctx, ctrl)

	sess, err := ctrl.Start(req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Recording %q to %s (Ctrl+C to stop)\n", sess.TaskDescription, sess.Dir)

	live := term.IsTerminal(os.Stdout.Fd())
	t := time.NewTicker(e.cfg.Refresh())
	defer t.Stop()
wait:
	for {
		select {
		case <-ctrl.Done():
			break wait
		case <-ctx.Done():
			_ = ctrl.Stop()
			<-ctrl.Done()
			break wait
		case <-t.C:
			if live {
				fmt.Fprintf(out, "\rState: %-10s Elapsed: %d s ", ctrl.State(), ctrl.ElapsedSeconds())
			}
		}
	}
	if live {
		fmt.Fprintln(out)
	}

	outcome, err := ctrl.Wait(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, presenter.OutcomeSummary(outcome))
	if r, ok := outcome.Result(session.StreamScreen); ok && !r.OK() {
		return fmt.Errorf("screen recording failed: %w", r.Err)
	}
	return nil
}
