package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/waveshelf/internal/importer"
	"github.com/llehouerou/waveshelf/internal/player"
	"github.com/llehouerou/waveshelf/internal/server"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library and the player over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}

func serve(ctx context.Context, listen string) error {
	a, err := openApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	if listen == "" {
		listen = a.cfg.GetServerConfig().Listen
	}

	pb := a.newPlayback(player.New(player.WithLogger(a.logger)))
	defer pb.Close()

	srv := server.New(server.Deps{
		Browser:     a.browser,
		Playback:    pb,
		Importer:    a.importer,
		Stations:    a.stations,
		Tracks:      a.store,
		Images:      a.images,
		Media:       a.media,
		RecentLimit: a.lib.RecentLimit,
		Logger:      a.logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, listen) })

	if imp := a.cfg.GetImportConfig(); imp.WatchDir != "" {
		w := importer.NewWatcher(a.importer, imp.WatchDir, imp.Debounce())
		g.Go(func() error {
			if err := w.Run(ctx); err != nil {
				// The server keeps running without the drop folder.
				a.logger.Error("import watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}
