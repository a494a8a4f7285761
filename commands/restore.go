package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/penwyp/go-project-history/internal/application/rewind"
	"github.com/penwyp/go-project-history/internal/util"
	"github.com/spf13/cobra"
)

var (
	restoreAt  string
	restoreYes bool

	copyAt  string
	copyOut string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the project files with a restore point",
	RunE:  runRestore,
}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Save a restore point as a separate project",
	RunE:  runCopy,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(copyCmd)

	restoreCmd.Flags().StringVar(&restoreAt, "at", "",
		"Restore point to restore")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false,
		"Do not ask for confirmation")

	copyCmd.Flags().StringVar(&copyAt, "at", "now",
		"Restore point to copy")
	copyCmd.Flags().StringVar(&copyOut, "out", "",
		"Directory to write the copy to")
}

func runRestore(cmd *cobra.Command, args []string) error {
	session, err := openSession(cmd, rewind.SessionOptions{})
	if err != nil {
		return err
	}
	defer session.Close()

	entry, project, err := reconstructAt(cmd, session, restoreAt)
	if err != nil {
		return err
	}
	if entry.IsNow() {
		return rewind.ErrNothingToRestore
	}

	if !restoreYes {
		fmt.Fprintf(cmd.OutOrStdout(), "Replace the project files with %s %s? (y/N): ", entry.Kind, entry.Label)
		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "Restore cancelled.")
			return nil
		}
	}

	if err := session.WriteRestore(commandContext(cmd), project); err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s %s.\n",
		util.Plural(len(project.Files), "file", "files"), entry.Kind, entry.Label)
	return nil
}

func runCopy(cmd *cobra.Command, args []string) error {
	if copyOut == "" {
		return fmt.Errorf("--out is required")
	}

	session, err := openSession(cmd, rewind.SessionOptions{})
	if err != nil {
		return err
	}
	defer session.Close()

	entry, project, err := reconstructAt(cmd, session, copyAt)
	if err != nil {
		return err
	}

	out := expandPath(copyOut)
	if err := session.WriteCopy(project, out); err != nil {
		return fmt.Errorf("failed to write copy: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Copied %s from %s %s to %s.\n",
		util.Plural(len(project.Files), "file", "files"), entry.Kind, entry.Label, out)
	return nil
}
