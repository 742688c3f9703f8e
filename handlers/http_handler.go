// Package handlers provides the HTTP handlers of the pharmacie API: paged
// listing, search, lookup by id, export and health.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/pharmacie/data"
	"github.com/giygas/pharmacie/entities"
	"github.com/giygas/pharmacie/interfaces"
	"github.com/giygas/pharmacie/logging"
	"github.com/giygas/pharmacie/search"
	"github.com/giygas/pharmacie/validation"
	"github.com/go-chi/chi/v5"
)

const pageSize = 10

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

type HTTPHandlerImpl struct {
	dataStore interfaces.DataStore
	validator interfaces.DataValidator
	health    interfaces.HealthChecker
}

func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, health interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore: dataStore,
		validator: validator,
		health:    health,
	}
}

// MedicamentResponse is the API view of a medicament. Display carries the
// text rendering shown by the front-end list.
type MedicamentResponse struct {
	ID                  string `json:"id"`
	Denomination        string `json:"denomination"`
	FormePharmaceutique string `json:"formePharmaceutique"`
	Quantite            int    `json:"quantite"`
	Photo               string `json:"photo"`
	PhotoURL            string `json:"photoUrl,omitempty"`
	Display             string `json:"display"`
}

type PagedResponse struct {
	Data       []MedicamentResponse `json:"data"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalItems int                  `json:"totalItems"`
	MaxPage    int                  `json:"maxPage"`
}

type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

func toResponse(m entities.Medicament) MedicamentResponse {
	return MedicamentResponse{
		ID:                  m.ID(),
		Denomination:        m.Denomination(),
		FormePharmaceutique: m.FormePharmaceutique(),
		Quantite:            m.Quantite(),
		Photo:               m.Photo(),
		PhotoURL:            photoURL(m.Photo()),
		Display:             m.String(),
	}
}

func toResponses(meds []entities.Medicament) []MedicamentResponse {
	out := make([]MedicamentResponse, len(meds))
	for i, m := range meds {
		out[i] = toResponse(m)
	}
	return out
}

// photoURL maps a relative photo path onto the /photos static route
func photoURL(photo string) string {
	switch {
	case photo == "":
		return ""
	case strings.HasPrefix(photo, "http://"), strings.HasPrefix(photo, "https://"):
		return photo
	default:
		return "/photos/" + strings.TrimPrefix(photo, "./")
	}
}

// RespondWithJSON writes payload as JSON with the catalogue's Last-Modified
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if lastUpdated := h.dataStore.GetLastUpdated(); !lastUpdated.IsZero() {
		w.Header().Set("Last-Modified", lastUpdated.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes {error, message, code}
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// notModified sets the ETag for the current snapshot and reports whether
// the client already holds it.
func (h *HTTPHandlerImpl) notModified(w http.ResponseWriter, r *http.Request) bool {
	lastUpdated := h.dataStore.GetLastUpdated()
	if lastUpdated.IsZero() {
		return false
	}

	etag := fmt.Sprintf(`W/"%x"`, lastUpdated.UnixNano())
	w.Header().Set("ETag", etag)

	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if c := strings.TrimSpace(candidate); c == etag || c == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

// ServeMedicaments serves GET /v1/medicaments: a search when ?search= is
// given, a page of 10 records otherwise (?page=, default 1).
func (h *HTTPHandlerImpl) ServeMedicaments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has("search") {
		h.searchMedicaments(w, r, query.Get("search"))
		return
	}

	page := 1
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			logging.Warn("Unusual user input", "page", raw)
			h.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
		page = n
	}

	medicaments := h.dataStore.GetMedicaments()
	start := (page - 1) * pageSize
	if start >= len(medicaments) {
		h.RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}

	if h.notModified(w, r) {
		return
	}

	end := min(start+pageSize, len(medicaments))

	h.RespondWithJSON(w, http.StatusOK, PagedResponse{
		Data:       toResponses(medicaments[start:end]),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(medicaments),
		MaxPage:    (len(medicaments) + pageSize - 1) / pageSize,
	})
}

func (h *HTTPHandlerImpl) searchMedicaments(w http.ResponseWriter, r *http.Request, term string) {
	if err := h.validator.ValidateInput(term); err != nil {
		if errors.Is(err, validation.ErrEmptyInput) {
			h.RespondWithError(w, http.StatusBadRequest, "Missing search term")
			return
		}
		logging.Warn("Rejected search input", "search", term, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.notModified(w, r) {
		return
	}

	// Always 200, with an empty array when nothing matches
	results := search.Filter(h.dataStore.GetMedicaments(), term)
	h.RespondWithJSON(w, http.StatusOK, toResponses(results))
}

// FindMedicamentByID serves GET /v1/medicaments/{id}
func (h *HTTPHandlerImpl) FindMedicamentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	med, err := h.dataStore.FindByID(id)
	if errors.Is(err, data.ErrNotFound) {
		h.RespondWithError(w, http.StatusNotFound, "Medicament not found")
		return
	}
	if err != nil {
		logging.Error("Failed to look up medicament", "id", id, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, toResponse(med))
}

// ExportMedicaments serves the whole catalogue in its storage format
func (h *HTTPHandlerImpl) ExportMedicaments(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="Medicaments.json"`)
	h.RespondWithJSON(w, http.StatusOK, h.dataStore.GetMedicaments())
}

// HealthCheck serves GET /health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status: status,
		Data:   details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"uptime":     formatUptime(time.Since(h.dataStore.GetServerStartTime())),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}

// formatUptime renders d as "1d 2h 3m 4s", dropping leading zero units
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
