package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/structur-io/structur/internal/adapter"
	"github.com/structur-io/structur/internal/config"
	"github.com/structur-io/structur/internal/controller"
	"github.com/structur-io/structur/internal/domain"
	m "github.com/structur-io/structur/internal/model"
)

var watchDebounceFlag time.Duration

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch INPUT OUTPUT",
		Short: "Reprocess the input folder on every change",
		Long: `Watch runs an initial processing pass and then reprocesses INPUT whenever
a document is created, changed or removed. Output is plain text; the run
repeats until interrupted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadRunSettings(cmd.Flags(), args[0], args[1])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd, settings)
		},
	}

	registerProcessFlags(cmd)
	cmd.Flags().DurationVar(&watchDebounceFlag, "debounce", 2*time.Second, "quiet period before reprocessing after a change")

	return cmd
}

// runWatch re-runs the workflow on filesystem changes until ctx is done.
// Each pass gets a fresh workflow; cross-pass duplicate state is carried by
// the persisted manifest.
func runWatch(ctx context.Context, cmd *cobra.Command, settings *config.Settings) error {
	runLogger, err := config.NewRunLogger(settings.Verbose, settings.OutputBase)
	if err != nil {
		return err
	}

	logger = runLogger

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watchTree(watcher, settings.InputFolder); err != nil {
		return err
	}

	// The TUI blocks on its summary view, so watch mode always uses plain
	// output. Each pass gets fresh adapters; duplicate state carries over
	// through the manifest.
	runOnce := func() error {
		wf, err := domain.NewWorkflow(
			settings,
			adapter.NewLocalDocumentSource(),
			adapter.NewLocalOutputStore(settings),
			adapter.NewLocalCodesStore(),
			controller.NewSimpleUI(cmd),
			runLogger,
		)
		if err != nil {
			return err
		}

		_, err = wf.Run(m.Path(settings.InputFolder))

		return err
	}

	if err := runOnce(); err != nil {
		return err
	}

	changes := make(chan string, 16)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pumpEvents(ctx, watcher, settings, changes)
	})

	g.Go(func() error {
		var timer *time.Timer

		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return nil

			case path := <-changes:
				logger.Debug("change detected", zap.String("path", path))

				if timer == nil {
					timer = time.NewTimer(watchDebounceFlag)
					fire = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(watchDebounceFlag)
				}

			case <-fire:
				timer = nil
				fire = nil

				if err := runOnce(); err != nil {
					logger.Error("reprocess failed", zap.Error(err))
				}
			}
		}
	})

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}

	return err
}

// pumpEvents forwards relevant watcher events to changes and keeps newly
// created directories under watch.
func pumpEvents(ctx context.Context, watcher *fsnotify.Watcher, settings *config.Settings, changes chan<- string) error {
	outputBase, _ := filepath.Abs(settings.OutputBase)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			abs, _ := filepath.Abs(ev.Name)
			if outputBase != "" && strings.HasPrefix(abs, outputBase+string(filepath.Separator)) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, ev.Name)
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				select {
				case changes <- ev.Name:
				default:
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("watch error", zap.Error(err))
		}
	}
}

// watchTree registers root and every directory below it.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return watcher.Add(path)
		}

		return nil
	})
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
