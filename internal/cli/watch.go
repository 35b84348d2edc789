package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

// debounce is how long watch waits after the last change before rerunning.
const debounce = 500 * time.Millisecond

// watchCommand creates the watch command, which reruns render whenever
// graph.txt or the config file in the working directory changes.
func (c *CLI) watchCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "watch <workdir>",
		Short: "Rerun render whenever <workdir>/graph.txt changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateWorkDir(args[0]); err != nil {
				return err
			}
			return c.runWatch(cmd, args[0], &flags)
		},
	}
	flags.register(cmd, true, true)
	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, workdir string, flags *runFlags) error {
	ctx := cmd.Context()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory rather than the
	// file itself.
	if err := watcher.Add(workdir); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", workdir)
	}

	rerun := func() {
		if err := c.renderOnce(ctx, cmd, workdir, flags); err != nil && ctx.Err() == nil {
			printError("%s", errors.UserMessage(err))
		}
	}
	rerun()
	printInfo("Watching %s for changes (Ctrl+C to stop)", workdir)

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched(event) {
				continue
			}
			c.Logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "err", err)

		case <-timer.C:
			rerun()
		}
	}
}

// watched reports whether event touches an input of the render command.
func watched(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Base(event.Name) {
	case pipeline.GraphFile, configFile:
		return true
	}
	return false
}

// renderOnce resolves options afresh so edits to the config file apply to
// the next run.
func (c *CLI) renderOnce(ctx context.Context, cmd *cobra.Command, workdir string, flags *runFlags) error {
	if err := errors.RequireFile(filepath.Join(workdir, pipeline.GraphFile)); err != nil {
		return err
	}
	s, err := c.prepare(cmd, workdir, flags)
	if err != nil {
		return err
	}
	return c.runRender(ctx, s)
}
