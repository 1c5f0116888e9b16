package cmd

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"lattice/internal/config"
	"lattice/internal/live"
	"lattice/internal/ui"
)

// runEdit opens the interactive editor on a board file. An empty path means
// the default board under the configured board directory.
func runEdit(path string) error {
	cfg := config.Load()
	log := newLogger(cfg, true)

	if path == "" {
		if err := os.MkdirAll(cfg.Board.Dir, 0o755); err != nil {
			return err
		}
		path = cfg.DefaultBoardPath()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var lv *live.Server
	if cfg.Live.Enabled {
		lv = live.NewServer(log)
		go func() {
			if err := lv.ListenAndServe(ctx, cfg.Live.Addr); err != nil {
				log.Error("live server stopped", "err", err)
			}
		}()
	}

	m := ui.NewModel(path, cfg, log, lv)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)

	if cfg.Live.Watch {
		go func() {
			err := live.Watch(ctx, path, log, func() {
				p.Send(ui.ReloadMsg{})
			})
			if err != nil {
				log.Warn("file watch unavailable", "err", err)
			}
		}()
	}

	_, err := p.Run()
	return err
}
