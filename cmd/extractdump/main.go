// Command extractdump prints what the import pipeline would read from
// audio files, without touching the library.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/artwork"
	"github.com/llehouerou/waveshelf/internal/tags"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file>...\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reader := tags.NewReader(logger)
	ctx := context.Background()

	for _, path := range os.Args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		if !tags.IsMusicFile(path) {
			log.Printf("%s: not a music file, reading anyway", path)
		}

		m := reader.Extract(ctx, filepath.Base(path), data)
		fmt.Printf("%s (%s)\n", path, humanize.Bytes(uint64(len(data))))
		fmt.Printf("  title:  %s\n", m.Title)
		fmt.Printf("  artist: %s\n", m.Artist)
		fmt.Printf("  album:  %s\n", m.Album)
		if m.Degraded {
			fmt.Printf("  degraded: %s\n", m.Reason)
		}
		if m.Picture != nil {
			fmt.Printf("  cover:  %s, %s, background %s\n",
				m.Picture.MIMEType,
				humanize.Bytes(uint64(len(m.Picture.Data))),
				artwork.DominantColor(m.Picture.Data))
		}
	}
}
