package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/soocke/productivity-recorder/domain/session"
	"github.com/soocke/productivity-recorder/domain/video"
)

func newSessionsCmd(e *env) *cobra.Command {
	var probe bool
	c := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := session.NewStore(e.cfg.OutputDir).List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions in "+e.cfg.OutputDir)
				return nil
			}
			headers := []string{"STARTED", "TASK", "FILES"}
			if probe {
				headers = append(headers, "DURATION")
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers(headers...)
			for _, rec := range records {
				row := []string{rec.Started.Format(session.TimeLayout), task(rec), files(rec)}
				if probe {
					row = append(row, durations(cmd.Context(), e.cfg.FFprobePath, rec))
				}
				t.Row(row...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	c.Flags().BoolVar(&probe, "probe", false, "read video durations with ffprobe")
	return c
}

func task(rec session.Record) string {
	if rec.Metadata == nil {
		return "-"
	}
	return rec.Metadata.TaskDescription
}

func files(rec session.Record) string {
	names := make([]string, 0, len(rec.Files))
	for _, f := range rec.Files {
		names = append(names, filepath.Base(f))
	}
	return strings.Join(names, " ")
}

func durations(ctx context.Context, ffprobe string, rec session.Record) string {
	var parts []string
	for _, f := range rec.Files {
		if filepath.Ext(f) != ".mp4" {
			continue
		}
		info, err := video.Inspect(ctx, ffprobe, f)
		if err != nil || info.ProbeErr != nil {
			parts = append(parts, filepath.Base(f)+"=?")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", filepath.Base(f), info.Probe.Duration.Round(time.Second)))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

