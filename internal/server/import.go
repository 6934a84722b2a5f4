package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/importer"
	"github.com/llehouerou/waveshelf/internal/tags"
)

type importJSON struct {
	Imported int           `json:"imported"`
	IDs      []int64       `json:"ids"`
	Degraded []string      `json:"degraded,omitempty"`
	Skipped  []skippedJSON `json:"skipped,omitempty"`
	Size     string        `json:"size"`
	Summary  string        `json:"summary"`
}

type skippedJSON struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// handleImport stores every audio file of the multipart field "files" as
// one batch. Non-audio parts are skipped.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, errmsg.OpImportFiles, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var (
		sources []importer.Source
		skipped []importer.Skipped
	)
	for _, fh := range r.MultipartForm.File["files"] {
		if !tags.IsMusicFile(fh.Filename) {
			skipped = append(skipped, importer.Skipped{Path: fh.Filename, Err: importer.ErrUnsupportedFile})
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			skipped = append(skipped, importer.Skipped{Path: fh.Filename, Err: err})
			continue
		}
		sources = append(sources, importer.Source{Name: fh.Filename, Data: data})
	}

	report, err := s.deps.Importer.Import(r.Context(), sources)
	if err != nil {
		s.writeError(w, errmsg.OpImportFiles, err)
		return
	}
	report.Skipped = append(report.Skipped, skipped...)

	out := importJSON{
		Imported: report.Imported(),
		IDs:      report.IDs,
		Degraded: report.Degraded,
		Size:     humanize.Bytes(uint64(report.Bytes)),
		Summary:  report.String(),
	}
	if out.IDs == nil {
		out.IDs = []int64{}
	}
	for _, sk := range report.Skipped {
		out.Skipped = append(out.Skipped, skippedJSON{Name: sk.Path, Error: sk.Err.Error()})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
