package commands

import (
	"context"
	"fmt"

	"github.com/penwyp/go-project-history/internal/application/rewind"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/core/timeline"
	"github.com/penwyp/go-project-history/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "List restore points grouped by day",
	RunE:  runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	session, err := openSession(cmd, rewind.SessionOptions{})
	if err != nil {
		return err
	}
	defer session.Close()

	f, err := formatter.New(outputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return f.FormatTimeline(session.Coordinator().Timeline())
}

func openSession(cmd *cobra.Command, opts rewind.SessionOptions) (*rewind.Session, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return rewind.NewSession(commandContext(cmd), config, opts)
}

// reconstructAt resolves ref on the session's timeline and reconstructs it
func reconstructAt(cmd *cobra.Command, session *rewind.Session, ref string) (model.TimeEntry, model.ReconstructedProject, error) {
	if ref == "" {
		return model.TimeEntry{}, model.ReconstructedProject{}, fmt.Errorf("--at is required")
	}
	entry, err := timeline.Find(session.Coordinator().Timeline(), ref)
	if err != nil {
		return model.TimeEntry{}, model.ReconstructedProject{}, err
	}
	project, err := session.Coordinator().Reconstruct(commandContext(cmd), entry)
	if err != nil {
		return entry, model.ReconstructedProject{}, fmt.Errorf("failed to reconstruct %s %s: %w", entry.Kind, entry.Label, err)
	}
	return entry, project, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
