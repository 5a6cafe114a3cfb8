package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/crucial707/applog/internal/middleware"
	"github.com/crucial707/applog/internal/models"
	"github.com/crucial707/applog/internal/repo"
	"github.com/go-chi/chi/v5"
)

// ==========================
// DictionaryHandler
// ==========================
type DictionaryHandler struct {
	Repo      *repo.DictionaryRepo
	AuditRepo *repo.AuditRepo
}

// dictionaryInput accepts either a full definition or a flat list of type names.
type dictionaryInput struct {
	Name       string                `json:"name"`
	Data       models.DictionaryData `json:"data"`
	Actions    []string              `json:"actions"`
	NewActions []string              `json:"newActions"`
}

func (in dictionaryInput) definition() models.DictionaryData {
	if len(in.Data) > 0 {
		return in.Data
	}
	if len(in.NewActions) > 0 {
		return models.DictionaryDataFromActions(in.NewActions)
	}
	return models.DictionaryDataFromActions(in.Actions)
}

// decodeDictionary reads and validates the body. On failure it has already answered.
func decodeDictionary(w http.ResponseWriter, r *http.Request) (string, models.DictionaryData, bool) {
	var input dictionaryInput
	if !decodeJSON(w, r, &input) {
		return "", nil, false
	}
	name := strings.TrimSpace(input.Name)
	fields := make(map[string]string)
	switch {
	case name == "":
		fields["name"] = "required"
	case utf8.RuneCountInString(name) > models.MaxDictionaryNameLen:
		fields["name"] = fmt.Sprintf("must be at most %d characters", models.MaxDictionaryNameLen)
	}
	data := input.definition()
	for k, v := range data.Validate() {
		fields[k] = v
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return "", nil, false
	}
	return name, data, true
}

// ==========================
// Create Dictionary
// ==========================
func (h *DictionaryHandler) CreateDictionary(w http.ResponseWriter, r *http.Request) {
	name, data, ok := decodeDictionary(w, r)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(r.Context())

	dict, err := h.Repo.Create(r.Context(), name, data, userID)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			JSONError(w, "dictionary already exists", http.StatusConflict)
			return
		}
		internalError(w, r, "create dictionary", err)
		return
	}

	audit(r, h.AuditRepo, "create", "dictionary", dict.Name, strings.Join(dict.Data.Types(), ","))
	writeJSON(w, http.StatusCreated, dict)
}

// ==========================
// Get Dictionary
// ==========================
func (h *DictionaryHandler) GetDictionary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	dict, err := h.Repo.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "dictionary not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "get dictionary", err)
		return
	}

	writeJSON(w, http.StatusOK, dict)
}

// ==========================
// List Dictionaries
// ==========================
func (h *DictionaryHandler) ListDictionaries(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.List(r.Context())
	if err != nil {
		internalError(w, r, "list dictionaries", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"dictionaries": list})
}

// ==========================
// Update Dictionary
// ==========================
// Logs already written against the old definition are left untouched.
func (h *DictionaryHandler) UpdateDictionary(w http.ResponseWriter, r *http.Request) {
	name, data, ok := decodeDictionary(w, r)
	if !ok {
		return
	}

	dict, err := h.Repo.Update(r.Context(), name, data)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "dictionary not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "update dictionary", err)
		return
	}

	audit(r, h.AuditRepo, "update", "dictionary", dict.Name, strings.Join(dict.Data.Types(), ","))
	writeJSON(w, http.StatusOK, dict)
}

// ==========================
// Delete Dictionary
// ==========================
func (h *DictionaryHandler) DeleteDictionary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.Repo.Delete(r.Context(), name); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "dictionary not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "delete dictionary", err)
		return
	}

	audit(r, h.AuditRepo, "delete", "dictionary", name, "")
	w.WriteHeader(http.StatusNoContent)
}
