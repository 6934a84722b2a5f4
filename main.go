package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/artwork"
	"github.com/llehouerou/waveshelf/internal/config"
	"github.com/llehouerou/waveshelf/internal/handles"
	"github.com/llehouerou/waveshelf/internal/importer"
	"github.com/llehouerou/waveshelf/internal/library"
	"github.com/llehouerou/waveshelf/internal/logging"
	"github.com/llehouerou/waveshelf/internal/playback"
	"github.com/llehouerou/waveshelf/internal/player"
	"github.com/llehouerou/waveshelf/internal/playlist"
	"github.com/llehouerou/waveshelf/internal/radio"
	"github.com/llehouerou/waveshelf/internal/store"
	"github.com/llehouerou/waveshelf/internal/tags"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "waveshelf",
		Short:         "A music shelf: import tracks, browse them, play them or a radio station.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: XDG config locations)")

	root.AddCommand(
		newServeCmd(),
		newTUICmd(),
		newImportCmd(),
		newLsCmd(),
		newRadioCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the components every command shares.
type app struct {
	cfg      *config.Config
	lib      config.LibraryConfig
	logger   *zap.Logger
	store    *store.Store
	images   *artwork.Images
	media    *handles.Registry
	browser  *library.Browser
	importer *importer.Importer
	stations *radio.Directory
}

// logTarget says where console log lines go. nil keeps only the file core.
func openApp(ctx context.Context, logTarget io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Config:  cfg.GetLogConfig(),
		Console: logTarget != nil,
		Writer:  logTarget,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	lib, err := cfg.GetLibraryConfig()
	if err != nil {
		return nil, fmt.Errorf("library config: %w", err)
	}

	st := store.New(lib.DBPath, logger)
	if err := st.Open(ctx); err != nil {
		return nil, fmt.Errorf("open library %s: %w", lib.DBPath, err)
	}

	cache, err := artwork.NewCache(lib.CacheDir)
	if err != nil {
		logger.Warn("thumbnail cache disabled", zap.String("dir", lib.CacheDir), zap.Error(err))
		cache = nil
	}
	images := artwork.NewImages(handles.NewRegistry("/art/"), artwork.NewThumbnailer(cache, logger), logger)

	browser, err := library.NewBrowser(st, images, lib.Collation, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	stations, err := radio.NewDirectory(cfg.GetRadioConfig().Stations)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("radio stations: %w", err)
	}

	imp := importer.New(st, tags.NewReader(logger), importer.Options{
		Concurrency: cfg.GetImportConfig().Concurrency,
	}, logger)

	return &app{
		cfg:      cfg,
		lib:      lib,
		logger:   logger,
		store:    st,
		images:   images,
		media:    handles.NewRegistry("/media/"),
		browser:  browser,
		importer: imp,
		stations: stations,
	}, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom([]string{configPath}, ".env")
	}
	return config.Load()
}

// newPlayback builds the playback service on top of an audio transport.
func (a *app) newPlayback(transport player.Interface) playback.Service {
	return playback.New(playback.Config{
		Tracks:         a.store,
		Transport:      transport,
		Stations:       a.stations,
		Media:          a.media,
		Art:            a.images.Registry(),
		ConnectTimeout: a.cfg.GetRadioConfig().Timeout(),
		Online:         radio.InterfacesUp,
		Policy:         playlist.Wrap,
		Logger:         a.logger,
	})
}

func (a *app) Close() {
	released := a.images.Registry().ReleaseAll() + a.media.ReleaseAll()
	a.logger.Debug("released handles", zap.Int("count", released))
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close library", zap.Error(err))
	}
	_ = a.logger.Sync()
}
