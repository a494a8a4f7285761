package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/penwyp/go-project-history/internal/application/rewind"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/core/timeline"
	"github.com/penwyp/go-project-history/internal/presentation/formatter"
	"github.com/penwyp/go-project-history/internal/util"
	"github.com/spf13/cobra"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Drive a preview surface from interactive selections",
	Long: `Reads commands from standard input and previews the selected restore points.

Commands:
  list            show the timeline
  select <ref>    preview a restore point (ref as for show --at)
  now             preview the live project
  wait            block until the preview is up to date
  restore         write the selected restore point over the project
  copy <dir>      write the selected restore point to dir
  quit            exit

Without a surface URL (--surface, surface_url or PROJECT_HISTORY_SURFACE_URL),
previews are reported on standard output.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveWatch, "watch", true,
		"Reload when the history log changes")
}

// syncWriter serializes writes from the command loop and the warning reporter
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// printSurface reports deliveries instead of rendering them
type printSurface struct {
	w io.Writer
}

func (p printSurface) ImportProject(ctx context.Context, files model.ProjectFileSet) error {
	_, err := fmt.Fprintf(p.w, "preview: %s, digest %s\n", util.Plural(len(files), "file", "files"), files.Digest()[:12])
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	out := &syncWriter{w: cmd.OutOrStdout()}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := rewind.SessionOptions{Preview: true}
	if config.SurfaceURL == "" {
		opts.Surface = printSurface{w: out}
	}
	session, err := rewind.NewSession(ctx, config, opts)
	if err != nil {
		return err
	}
	defer session.Close()

	if serveWatch {
		if err := session.Watch(ctx); err != nil {
			return err
		}
	}

	coordinator := session.Coordinator()
	go func() {
		for {
			select {
			case w := <-coordinator.Warnings():
				fmt.Fprintf(out, "warning: %s\n", w.Message())
			case <-ctx.Done():
				return
			}
		}
	}()

	f, err := formatter.New(outputFormat, out)
	if err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			coordinator.Wait()
			return nil
		case line, ok := <-lines:
			if !ok {
				coordinator.Wait()
				return nil
			}
			quit, err := handleServeCommand(ctx, session, f, out, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				coordinator.Wait()
				return nil
			}
		}
	}
}

func handleServeCommand(ctx context.Context, session *rewind.Session, f formatter.Formatter, out io.Writer, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	coordinator := session.Coordinator()

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true, nil
	case "list":
		return false, f.FormatTimeline(coordinator.Timeline())
	case "now":
		return false, selectRef(ctx, coordinator, model.NowLabel)
	case "select":
		if len(fields) < 2 {
			return false, errors.New("usage: select <ref>")
		}
		return false, selectRef(ctx, coordinator, strings.Join(fields[1:], " "))
	case "wait":
		coordinator.Wait()
		selected := coordinator.Selection()
		fmt.Fprintf(out, "selected: %s %s\n", selected.Kind, selected.Label)
		return false, nil
	case "restore":
		coordinator.Wait()
		project, err := coordinator.Restore(ctx)
		if err != nil {
			return false, err
		}
		if err := session.WriteRestore(ctx, project); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "restored %s\n", util.Plural(len(project.Files), "file", "files"))
		return false, nil
	case "copy":
		if len(fields) < 2 {
			return false, errors.New("usage: copy <dir>")
		}
		coordinator.Wait()
		project, err := coordinator.SaveCopy(ctx)
		if err != nil {
			return false, err
		}
		dir := expandPath(fields[1])
		if err := session.WriteCopy(project, dir); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "copied %s to %s\n", util.Plural(len(project.Files), "file", "files"), dir)
		return false, nil
	}
	return false, fmt.Errorf("unknown command %q", fields[0])
}

func selectRef(ctx context.Context, coordinator *rewind.Coordinator, ref string) error {
	entry, err := timeline.Find(coordinator.Timeline(), ref)
	if err != nil {
		return err
	}
	return coordinator.SelectEntry(ctx, entry)
}
