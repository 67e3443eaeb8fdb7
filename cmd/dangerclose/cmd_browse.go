package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dangerclose/cmd/dangerclose/ui"
	"dangerclose/internal/config"
	"dangerclose/internal/watch"
)

// =============================================================================
// INTERACTIVE COMMANDS
// =============================================================================

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog interactively",
	Long: `Opens the terminal catalog browser. Selecting a weapon draws or removes its
rings around the target. Edits to the favorites list or the custom catalog
made by another dangerclose process are picked up while browsing.`,
	RunE: runBrowse,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to the favorites list and custom catalog",
	RunE:  runWatch,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, err := newWatcher(s.cfg)
	if err != nil {
		return err
	}
	defer w.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if err := w.Start(gctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.cfg.DataDir, err)
	}

	model := ui.NewBrowser(s.nav, s.cfg.Session.Target)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		for {
			select {
			case c, ok := <-w.Changes():
				if !ok {
					return nil
				}
				logger.Debug("Data changed", zap.String("path", c.Path), zap.String("kind", c.Kind))
				p.Send(ui.DataChangedMsg{Path: c.Path})
			case <-done:
				return nil
			case <-gctx.Done():
				return nil
			}
		}
	})

	return g.Wait()
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.DataDir)
	return watchChanges(ctx, cfg, func(c watch.Change) {
		fmt.Printf("%s  %-7s %s\n", time.Now().Format("15:04:05"), c.Kind, filepath.Base(c.Path))
	})
}

// watchChanges reports settled changes to fn until ctx is done.
func watchChanges(ctx context.Context, cfg *config.Config, fn func(watch.Change)) error {
	w, err := newWatcher(cfg)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.DataDir, err)
	}
	for c := range w.Changes() {
		fn(c)
	}
	return nil
}

func newWatcher(cfg *config.Config) (*watch.Watcher, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return watch.New(cfg.DataDir, cfg.GetWatchDebounce(), cfg.CustomsPath(), cfg.FavoritesPath())
}
