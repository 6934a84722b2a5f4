package tags

import (
	"os"
	"path/filepath"
	"strings"
)

// Common cover art filenames to look for in album folders.
var coverArtFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"album.jpg", "album.jpeg", "album.png",
	"front.jpg", "front.jpeg", "front.png",
}

// FolderArt looks for a common cover image file in dir. It is used for
// files imported from disk whose tags carry no picture.
// Returns nil if no art is found.
func FolderArt(dir string) *Picture {
	for _, filename := range coverArtFilenames {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			// Try case-insensitive match
			data, err = os.ReadFile(filepath.Join(dir, strings.ToUpper(filename)))
			if err != nil {
				continue
			}
		}
		if len(data) == 0 {
			continue
		}

		mimeType := mimeJPEG
		if strings.EqualFold(filepath.Ext(filename), ".png") {
			mimeType = mimePNG
		}
		return &Picture{MIMEType: mimeType, Data: data}
	}

	return nil
}
