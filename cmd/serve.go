package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lattice/internal/blueprint"
	"lattice/internal/config"
	"lattice/internal/live"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve <board.json>",
		Short: "Stream a board to WebSocket viewers, following file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := newLogger(cfg, false)
			if addr == "" {
				addr = cfg.Live.Addr
			}
			path := args[0]

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := live.NewServer(log)
			publish := func() {
				bp, err := blueprint.Load(path)
				if err != nil {
					log.Warn("board unreadable, keeping last snapshot", "err", err)
					return
				}
				srv.Broadcast(bp)
			}
			publish()

			go func() {
				if err := live.Watch(ctx, path, log, publish); err != nil {
					log.Warn("file watch unavailable", "err", err)
				}
			}()

			good.Printf("serving %s on ws://%s/ws\n", path, addr)
			subtle.Println("  ctrl+c to stop")
			err := srv.ListenAndServe(ctx, addr)
			// Give in-flight writes a beat before exiting.
			time.Sleep(50 * time.Millisecond)
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
