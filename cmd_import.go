package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/waveshelf/internal/importer"
	"github.com/llehouerou/waveshelf/internal/tags"
)

func newImportCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "import <paths...>",
		Short: "Import music files and folders into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := openApp(ctx, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			opts := importer.Options{Concurrency: a.cfg.GetImportConfig().Concurrency}
			if !quiet {
				opts.Progress = func(done, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\rreading tags %d/%d", done, total)
					if done == total {
						fmt.Fprintln(cmd.ErrOrStderr())
					}
				}
			}
			imp := importer.New(a.store, tags.NewReader(a.logger), opts, a.logger)

			report, err := imp.ImportPaths(ctx, args)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Imported %s (%s)\n",
				humanize.Comma(int64(report.Imported()))+" track(s)", humanize.Bytes(uint64(report.Bytes)))
			for _, name := range report.Degraded {
				fmt.Fprintf(out, "  no tags: %s\n", name)
			}
			for _, sk := range report.Skipped {
				fmt.Fprintf(out, "  skipped: %s: %v\n", sk.Path, sk.Err)
			}

			total, err := a.store.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Library: %s track(s)\n", humanize.Comma(int64(total)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress output")
	return cmd
}
