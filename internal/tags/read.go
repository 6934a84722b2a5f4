package tags

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"go.uber.org/zap"
)

// Reader is the Extractor used by the import pipeline.
type Reader struct {
	logger *zap.Logger
}

// NewReader returns a Reader logging degraded extractions to logger.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger.Named("tags")}
}

// Extract reads tags from data. It never fails: any problem yields the
// defaults for name with Degraded set.
func (r *Reader) Extract(ctx context.Context, name string, data []byte) (m Metadata) {
	defer func() {
		// Tag parsers index into untrusted bytes.
		if p := recover(); p != nil {
			m = r.degrade(name, fmt.Sprintf("parser panic: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return r.degrade(name, err.Error())
	}

	read, err := readTags(name, data)
	if err != nil {
		return r.degrade(name, err.Error())
	}
	return read.Apply(name)
}

func (r *Reader) degrade(name, reason string) Metadata {
	r.logger.Warn("extraction degraded",
		zap.String("file", name),
		zap.String("reason", reason),
	)
	m := Defaults(name)
	m.Degraded = true
	m.Reason = reason
	return m
}

// readTags tries dhowden/tag first, then a format specific reader.
func readTags(name string, data []byte) (Metadata, error) {
	if len(data) == 0 {
		return Metadata{}, errors.New("empty file")
	}

	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err == nil {
		out := Metadata{
			Title:  m.Title(),
			Artist: m.Artist(),
			Album:  m.Album(),
		}
		if pic := m.Picture(); pic != nil {
			out.Picture = &Picture{MIMEType: pic.MIMEType, Data: pic.Data}
		}
		return out, nil
	}

	switch {
	case isMP3(name, data):
		// dhowden/tag has issues with some UTF-16 encoded ID3 tags
		if fb, fbErr := readMP3WithID3v2Fallback(data); fbErr == nil {
			return fb, nil
		}
	case isFLAC(name, data):
		// dhowden/tag can fail on some FLAC files
		if fb, fbErr := readFLACBlocks(data); fbErr == nil {
			return fb, nil
		}
	}
	return Metadata{}, err
}

func isMP3(name string, data []byte) bool {
	return bytes.HasPrefix(data, []byte(id3Magic)) ||
		strings.EqualFold(filepath.Ext(name), ExtMP3)
}

func isFLAC(name string, data []byte) bool {
	return bytes.HasPrefix(data, []byte(flacMagic)) ||
		strings.EqualFold(filepath.Ext(name), ExtFLAC)
}
