package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	maxBodyBytes     = 5 << 20
)

// Store is the subset of the record store the HTTP API reads and writes.
type Store interface {
	GetRelease(id int64) (*models.Release, error)
	PutRelease(r *models.Release) error
	ListReleases(query string, limit, offset int) ([]*models.Release, error)
	GetContributor(id int64) (*models.Contributor, error)
	ListSkips() ([]models.SkipEntry, error)
	ClearSkip(id int64) error
	Checkpoint() (int, error)
}

// RecordsHandler serves the records, contributors and skip set as JSON.
//
// A PUT replaces the whole record through the same store write the sync pipeline uses, so an
// edited record is indistinguishable from a synced one.
type RecordsHandler struct {
	store  Store
	logger *log.Logger
	mux    *http.ServeMux
}

// NewRecordsHandler creates a [RecordsHandler] over store.
func NewRecordsHandler(store Store, logger *log.Logger) *RecordsHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	h := &RecordsHandler{store: store, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /records", h.listRecords)
	h.mux.HandleFunc("GET /records/{id}", h.getRecord)
	h.mux.HandleFunc("PUT /records/{id}", h.putRecord)
	h.mux.HandleFunc("GET /contributors/{id}", h.getContributor)
	h.mux.HandleFunc("GET /skips", h.listSkips)
	h.mux.HandleFunc("DELETE /skips/{id}", h.clearSkip)
	h.mux.HandleFunc("GET /status", h.status)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *RecordsHandler) Routes() []string {
	return []string{
		"GET /records",
		"GET /records/{id}",
		"PUT /records/{id}",
		"GET /contributors/{id}",
		"GET /skips",
		"DELETE /skips/{id}",
		"GET /status",
	}
}

func (h *RecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *RecordsHandler) listRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), defaultListLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit = min(max(limit, 1), maxListLimit)

	releases, err := h.store.ListReleases(q.Get("q"), limit, offset)
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": releases, "count": len(releases), "limit": limit, "offset": offset})
}

func (h *RecordsHandler) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	release, err := h.store.GetRelease(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

func (h *RecordsHandler) putRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var release models.Release
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&release); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err))
		return
	}
	if release.ReleaseID == 0 {
		release.ReleaseID = id
	}
	if release.ReleaseID != id {
		writeError(w, fmt.Errorf("%w: body release_id %d does not match path %d", shared.ErrInvalidInput, release.ReleaseID, id))
		return
	}
	if release.Slug == "" && release.Title != "" {
		release.Slug = shared.Slugify(fmt.Sprintf("%s-%d", release.Title, id))
	}

	if err := h.store.PutRelease(&release); err != nil {
		h.logger.Warn("record write rejected", "release_id", id, "error", err)
		writeError(w, err)
		return
	}
	h.logger.Info("record replaced", "release_id", id)
	writeJSON(w, http.StatusOK, &release)
}

func (h *RecordsHandler) getContributor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.store.GetContributor(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *RecordsHandler) listSkips(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListSkips()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skips": entries, "count": len(entries)})
}

func (h *RecordsHandler) clearSkip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.ClearSkip(id); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("skip entry cleared", "release_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) status(w http.ResponseWriter, r *http.Request) {
	checkpoint, err := h.store.Checkpoint()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkpoint": checkpoint})
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: expected a non-negative integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
