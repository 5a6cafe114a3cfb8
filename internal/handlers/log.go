package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/crucial707/applog/internal/logentry"
	"github.com/crucial707/applog/internal/metrics"
	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
)

// ==========================
// LogHandler
// ==========================
type LogHandler struct {
	Repo           *repo.LogRepo
	DictionaryRepo *repo.DictionaryRepo
}

const (
	defaultReadLimit = 100
	maxReadLimit     = 1000
)

// dictionaryParam reads ?name=, falling back to ?dict=.
func dictionaryParam(r *http.Request) string {
	q := r.URL.Query()
	if name := strings.TrimSpace(q.Get("name")); name != "" {
		return name
	}
	return strings.TrimSpace(q.Get("dict"))
}

// loadDictionary answers 404/500 itself and returns nil on failure.
func (h *LogHandler) loadDictionary(w http.ResponseWriter, r *http.Request, name string) *models.Dictionary {
	dict, err := h.DictionaryRepo.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "dictionary not found", http.StatusNotFound)
			return nil
		}
		internalError(w, r, "load dictionary", err)
		return nil
	}
	return dict
}

// ==========================
// Write
// ==========================
// Write stores one row per top-level key of the JSON body. Every key is checked
// against the dictionary before anything is inserted.
func (h *LogHandler) Write(w http.ResponseWriter, r *http.Request) {
	app, ok := middleware.GetApplication(r.Context())
	if !ok {
		JSONError(w, "missing application secret", http.StatusUnauthorized)
		return
	}

	dictName := dictionaryParam(r)
	if dictName == "" {
		dictName = app.DictionaryName
	}
	if dictName == "" {
		metrics.IncLogWriteRejection("bad_payload")
		JSONError(w, "dictionary name is required", http.StatusBadRequest)
		return
	}

	dict := h.loadDictionary(w, r, dictName)
	if dict == nil {
		metrics.IncLogWriteRejection("unknown_dictionary")
		return
	}

	fields, err := logentry.Parse(r.Body)
	if err != nil {
		metrics.IncLogWriteRejection("bad_payload")
		switch {
		case tooLarge(err):
			JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, io.EOF):
			JSONError(w, logentry.ErrNotObject.Error(), http.StatusBadRequest)
		default:
			JSONError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	if err := logentry.Validate(dict, fields); err != nil {
		metrics.IncLogWriteRejection("invalid_type")
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	path := r.URL.Query().Get("path")
	if !utf8.ValidString(path) || strings.ContainsRune(path, 0) {
		metrics.IncLogWriteRejection("bad_payload")
		JSONError(w, "invalid path", http.StatusBadRequest)
		return
	}
	stored := make([]models.LogEntry, 0, len(fields))
	for _, f := range fields {
		e, err := h.Repo.Insert(r.Context(), models.LogEntry{
			DictName:         dict.Name,
			Type:             f.Type,
			Data:             f.Data,
			Path:             path,
			ApplicationName:  app.Name,
			OrganisationName: app.Organisation,
		})
		if err != nil {
			metrics.AddLogEntriesWritten(dict.Name, len(stored))
			internalError(w, r, "write log", err)
			return
		}
		stored = append(stored, *e)
	}

	metrics.AddLogEntriesWritten(dict.Name, len(stored))
	writeJSON(w, http.StatusCreated, stored)
}

// ==========================
// Read
// ==========================
// Read requires logs=all. With a dictionary name the rows are restricted to its
// types and grouped as {type: [data, ...]}; otherwise raw rows are returned.
func (h *LogHandler) Read(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	if q.Get("logs") != "all" {
		JSONError(w, `query parameter logs must be "all"`, http.StatusBadRequest)
		return
	}

	limit, offset := pagination(r, defaultReadLimit, maxReadLimit)
	filter := repo.LogFilter{
		Type:            q.Get("sort"),
		ApplicationName: q.Get("application"),
		Limit:           limit,
		Offset:          offset,
	}
	if caller.Role == models.RoleUser {
		filter.OwnerID = caller.ID
	}

	dictName := dictionaryParam(r)
	if dictName == "" {
		entries, err := h.Repo.Read(r.Context(), filter)
		if err != nil {
			internalError(w, r, "read logs", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	dict := h.loadDictionary(w, r, dictName)
	if dict == nil {
		return
	}
	filter.DictName = dict.Name
	filter.Types = dict.Data.Types()

	entries, err := h.Repo.Read(r.Context(), filter)
	if err != nil {
		internalError(w, r, "read logs", err)
		return
	}
	writeJSON(w, http.StatusOK, logentry.GroupByType(entries))
}

// ==========================
// Read For Application
// ==========================
// ReadForApplication returns the raw rows written by the authenticated application.
// An optional body {"type": "..."} or ?sort= narrows to one type.
func (h *LogHandler) ReadForApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := middleware.GetApplication(r.Context())
	if !ok {
		JSONError(w, "missing application secret", http.StatusUnauthorized)
		return
	}

	var input struct {
		Type string `json:"type"`
	}
	if r.ContentLength != 0 {
		if err := decodeOptionalJSON(r, &input); err != nil {
			if tooLarge(err) {
				JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			JSONError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if input.Type == "" {
		input.Type = r.URL.Query().Get("sort")
	}

	limit, offset := pagination(r, defaultReadLimit, maxReadLimit)
	entries, err := h.Repo.Read(r.Context(), repo.LogFilter{
		Type:            input.Type,
		ApplicationName: app.Name,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		internalError(w, r, "read application logs", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
