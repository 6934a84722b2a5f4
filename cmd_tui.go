package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/player"
	"github.com/llehouerou/waveshelf/internal/stderr"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and play the library in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// Log lines would land on the screen, keep only the file core.
			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := stderr.Start(a.logger); err != nil {
				a.logger.Warn("stderr capture unavailable", zap.Error(err))
			}
			defer stderr.Stop()

			pb := a.newPlayback(player.New(player.WithLogger(a.logger)))
			defer pb.Close()

			p := tea.NewProgram(newTUIModel(ctx, a, pb), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}
}
