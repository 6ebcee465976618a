package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TemplePlayer/core/picker"
	"TemplePlayer/logger"
	"TemplePlayer/server"

	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveWatch string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动远程控制服务",
	Long:  `Run the player with an HTTP control API and a websocket state stream. Audio dropped into --watch is queued and played.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		opts := server.Options{
			Player:    a.controller,
			Registry:  a.registry,
			JWTSecret: cfg.JWTSecret,
		}
		if a.recorder != nil {
			opts.History = a.recorder
		}
		srv := server.New(opts)
		defer srv.Close()

		watchDir := serveWatch
		if watchDir == "" {
			watchDir = cfg.WatchDir
		}
		if watchDir != "" {
			go watchDropFolder(ctx, a, watchDir)
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.ListenAddr
		}
		if cfg.JWTSecret == "" {
			logger.Warn("[Serve] CONTROL_JWT_SECRET is empty, control API is unauthenticated")
		}
		return srv.ListenAndServe(ctx, addr)
	},
}

// watchDropFolder replaces the queue with each batch of dropped files and plays it.
func watchDropFolder(ctx context.Context, a *app, dir string) {
	logger.Info("[Serve] watching drop folder", logger.String("dir", dir))
	err := picker.DropFolder{Dir: dir}.Watch(ctx, func(paths []string) {
		tracks, err := a.registry.ResolveLocalPaths(ctx, paths)
		if err != nil {
			logger.Error("[Serve] resolve dropped files", logger.ErrorField(err))
			return
		}
		logger.Info("[Serve] dropped files queued", logger.Strings("paths", paths))
		a.controller.LoadQueue(ctx, tracks)
		a.controller.Play(ctx)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("[Serve] drop folder watch stopped", logger.ErrorField(err))
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $LISTEN_ADDR)")
	serveCmd.Flags().StringVarP(&serveWatch, "watch", "w", "", "drop folder to watch for new audio files")
}
