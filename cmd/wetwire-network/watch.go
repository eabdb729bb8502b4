package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-network-go/internal/config"
	"github.com/lex00/wetwire-network-go/internal/stacks"
)

type watchOptions struct {
	debounce time.Duration
	build    buildOptions
}

// newWatchCmd creates the "watch" subcommand for rebuilding on config changes.
func newWatchCmd(global *globalOptions) *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild when the config file changes",
		Long: `Watch monitors the config file and rebuilds on every change.

Rapid successive writes are debounced into one rebuild. A failing rebuild
is reported and watching continues.

Examples:
    wetwire-network watch -o out/
    wetwire-network watch -c prod.yaml --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), global, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&opts.build.format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&opts.build.outputDir, "output-dir", "o", "", "Write every stack into this directory")
	cmd.Flags().StringVarP(&opts.build.stack, "stack", "s", stacks.Network, "Stack printed to stdout")

	return cmd
}

// watchedFile returns the config file to watch as an absolute path.
func watchedFile(configPath string) (string, error) {
	if configPath == "" {
		configPath = config.DefaultFile
	}
	return filepath.Abs(configPath)
}

// runWatch rebuilds once, then on every write to the config file until ctx
// is cancelled.
func runWatch(ctx context.Context, global *globalOptions, opts watchOptions, out, errOut io.Writer) error {
	opts.build.target = targetCloudFormation

	file, err := watchedFile(global.configPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(file), err)
	}
	fmt.Fprintf(errOut, "Watching: %s\n", file)

	rebuild := func() {
		res, err := synthesize(ctx, global)
		if err == nil {
			err = runBuild(res, opts.build, out)
		}
		if err != nil {
			fmt.Fprintf(errOut, "Build failed: %v\n", err)
		}
	}
	rebuild()

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(errOut, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(errOut, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "Watch error: %v\n", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(errOut, "\nStopping watch...")
			return nil
		}
	}
}
