package commands

import (
	"fmt"

	"github.com/penwyp/go-project-history/internal/application/rewind"
	"github.com/penwyp/go-project-history/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	showAt   string
	showFile string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Describe the project as it was at a restore point",
	Long: `Reconstructs the project at a restore point without touching the project directory.

--at accepts "now", a millisecond timestamp, a share id or a time label such as 10:00.
With --file the content of one file is printed instead.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showAt, "at", "",
		"Restore point to reconstruct")
	showCmd.Flags().StringVar(&showFile, "file", "",
		"Print the content of this file")
}

func runShow(cmd *cobra.Command, args []string) error {
	session, err := openSession(cmd, rewind.SessionOptions{})
	if err != nil {
		return err
	}
	defer session.Close()

	entry, project, err := reconstructAt(cmd, session, showAt)
	if err != nil {
		return err
	}

	if showFile != "" {
		content, ok := project.Files[showFile]
		if !ok {
			return fmt.Errorf("file %s does not exist at %s", showFile, entry.Label)
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}

	f, err := formatter.New(outputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return f.FormatProject(formatter.NewProjectView(entry, project))
}
