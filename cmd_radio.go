package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRadioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "radio",
		Short: "List the configured radio stations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			rows := [][]string{{"ID", "TITLE", "ARTIST", "STREAM"}}
			for _, st := range a.stations.All() {
				rows = append(rows, []string{st.ID, st.Title, st.Artist, st.StreamURL})
			}
			return writeColumns(cmd.OutOrStdout(), rows)
		},
	}
}
