package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/llehouerou/waveshelf/internal/library"
)

// maxColumnWidth truncates long titles so rows stay on one line.
const maxColumnWidth = 48

func newLsCmd() *cobra.Command {
	var artist, album string
	cmd := &cobra.Command{
		Use:       "ls [songs|artists|albums]",
		Short:     "List the library",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"songs", "artists", "albums"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var modeName string
			if len(args) > 0 {
				modeName = args[0]
			}
			mode, err := library.ParseMode(modeName)
			if err != nil {
				return err
			}

			var sub *library.SubFilter
			switch {
			case artist != "":
				sub = library.ArtistFilter(artist)
			case album != "":
				sub = library.AlbumFilter(album)
			}

			a, err := openApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.browser.LoadGrouped(cmd.Context(), mode, sub)
			if err != nil {
				return err
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&artist, "artist", "", "only tracks by this artist")
	cmd.Flags().StringVar(&album, "album", "", "only tracks of this album")
	cmd.MarkFlagsMutuallyExclusive("artist", "album")
	return cmd
}

func printView(w io.Writer, view *library.View) error {
	if _, err := fmt.Fprintln(w, view.Title); err != nil {
		return err
	}
	if view.Outcome != library.OutcomeItems {
		_, err := fmt.Fprintln(w, view.Message)
		return err
	}

	var rows [][]string
	if view.Mode == library.ModeSongs {
		rows = append(rows, []string{"ID", "TITLE", "ARTIST", "ALBUM"})
		for _, s := range view.Songs {
			rows = append(rows, []string{strconv.FormatInt(s.ID, 10), s.Title, s.Artist, s.Album})
		}
	} else {
		rows = append(rows, []string{"NAME", "TRACKS", "ARTIST"})
		for _, g := range view.Groups {
			rows = append(rows, []string{g.Name, strconv.Itoa(g.Tracks), g.Artist})
		}
	}
	return writeColumns(w, rows)
}

// writeColumns prints rows aligned on display width, so CJK and emoji
// titles line up.
func writeColumns(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], min(runewidth.StringWidth(cell), maxColumnWidth))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		b.Reset()
		for i, cell := range row {
			cell = runewidth.Truncate(cell, maxColumnWidth, "…")
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
