package app

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"costlaw/api/internal/caselaw"
	"costlaw/api/internal/store"
)

const maxImportBytes = 16 << 20

func (s *HTTPServer) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.service.ListCases(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (s *HTTPServer) handleSearchCases(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	cases, err := s.service.SearchCases(r.Context(), store.CaseQuery{
		Text:     query.Get("q"),
		Category: query.Get("category"),
		Year:     query.Get("year"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (s *HTTPServer) handleGetCaseByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.service.GetCase(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.GetCaseBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var body CreateCaseInput
	if !decode(w, r, &body) {
		return
	}
	created, err := s.service.CreateCase(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body UpdateCaseInput
	if !decode(w, r, &body) {
		return
	}
	updated, err := s.service.UpdateCase(r.Context(), id, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteCase(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	noContent(w)
}

func (s *HTTPServer) handlePublishCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	published, err := s.service.PublishCase(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Successfully published to Discord",
		"case":    published,
	})
}

// handleImportCases accepts a .json upload in the casesFile form field or a
// JSON body holding a cases array.
func (s *HTTPServer) handleImportCases(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var (
		raws []caselaw.RawCase
		ok   bool
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		raws, ok = readImportFile(w, r)
	} else {
		raws, ok = readImportBody(w, r)
	}
	if !ok {
		return
	}

	report, err := s.service.ImportCases(r.Context(), raws)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if claims, found := identityFrom(r.Context()); found {
		s.logger.Info("case import requested", zap.Int64("user_id", claims.UserID), zap.Int("records", len(raws)))
	}
	writeJSON(w, http.StatusCreated, report)
}

func readImportFile(w http.ResponseWriter, r *http.Request) ([]caselaw.RawCase, bool) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid multipart body", nil)
		return nil, false
	}
	files := r.MultipartForm.File["casesFile"]
	switch {
	case len(files) == 0:
		writeError(w, http.StatusBadRequest, "NO_FILE", "No file uploaded", nil)
		return nil, false
	case len(files) > 1:
		writeError(w, http.StatusBadRequest, "TOO_MANY_FILES", "Only one file can be uploaded at a time", nil)
		return nil, false
	}
	header := files[0]
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_FILE", "Only JSON files are supported", nil)
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILE", "Failed to read uploaded file", nil)
		return nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILE", "Failed to read uploaded file", nil)
		return nil, false
	}
	raws, err := caselaw.ParseRawCases(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILE", "Invalid file format. Expected an array of case objects.", err.Error())
		return nil, false
	}
	return raws, true
}

func readImportBody(w http.ResponseWriter, r *http.Request) ([]caselaw.RawCase, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Import body is too large", nil)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Failed to read request body", nil)
		return nil, false
	}
	raws, err := caselaw.ParseRawCases(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_IMPORT", "Invalid import data. Expected a cases array.", err.Error())
		return nil, false
	}
	return raws, true
}
