package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/eugenenazirov/settingsd/internal/binding"
	"github.com/eugenenazirov/settingsd/internal/document"
	"github.com/eugenenazirov/settingsd/internal/loader"
	"github.com/eugenenazirov/settingsd/internal/schema"
	"github.com/eugenenazirov/settingsd/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxDocumentBytes caps the size of documents posted for validation.
const maxDocumentBytes = 1 << 20

// Reloader re-reads the settings document and applies it. Issues lists the
// statements that were skipped; err is non-nil when nothing was applied.
type Reloader interface {
	Reload(ctx context.Context) (snap storage.Snapshot, issues []loader.Issue, err error)
}

// Handler wires storage and loader dependencies into HTTP handlers.
type Handler struct {
	storage  storage.Storage
	loader   *loader.Loader
	schema   *schema.Schema
	reloader Reloader

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithReloader enables POST /api/reload.
func WithReloader(r Reloader) HandlerOption {
	return func(h *Handler) {
		h.reloader = r
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, l *loader.Loader, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		loader:  l,
		schema:  l.Schema(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
		Revision:  h.storage.Snapshot().Revision,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	snap := h.storage.Snapshot()
	options := snap.Options
	if r.URL.Query().Get("configured") == "true" {
		options = snap.Configured
	}

	resp := settingsResponse{
		Revision:  snap.Revision,
		UpdatedAt: snap.UpdatedAt,
		Options:   options,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	opt, ok := h.schema.Lookup(path)
	if !ok {
		h.writeUnknownOption(w, path)
		return
	}

	writeJSON(w, http.StatusOK, h.settingFor(opt, h.storage.Snapshot()))
}

func (h *Handler) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	opt, ok := h.schema.Lookup(path)
	if !ok {
		h.writeUnknownOption(w, path)
		return
	}

	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "value is required", `send {"value": null} to clear a nullable option`)
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse value")
		return
	}

	snap, err := h.storage.Set(path, value)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, "Invalid value", err.Error(), fmt.Sprintf("expected %s", opt.Type.Name()))
			return
		}
		writeInternalError(w, err)
		return
	}

	resp := h.settingFor(opt, snap)
	resp.Message = "Setting updated successfully"
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBindings(w http.ResponseWriter, r *http.Request) {
	snap := h.storage.Snapshot()

	if trigger := r.URL.Query().Get("trigger"); trigger != "" {
		normalized, err := binding.NormalizeTrigger(trigger)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid trigger", err.Error())
			return
		}
		command, ok := snap.Bindings[normalized]
		if !ok {
			writeError(w, http.StatusNotFound, "Binding not found", fmt.Sprintf("no command is bound to %q", normalized))
			return
		}
		writeJSON(w, http.StatusOK, binding.Entry{Trigger: normalized, Command: command})
		return
	}

	resp := bindingsResponse{
		Revision: snap.Revision,
		Bindings: snap.BindingEntries(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")

	options := make([]optionDescriptor, 0, h.schema.Len())
	for _, opt := range h.schema.Options() {
		if section != "" && opt.Section() != section {
			continue
		}
		options = append(options, describeOption(opt))
	}
	writeJSON(w, http.StatusOK, schemaResponse{Options: options})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	format := document.FormatYAML
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := document.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid format", err.Error(), "use yaml, toml or json")
			return
		}
		format = parsed
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Invalid request", "document is too large")
		return
	}

	res, loadErr := h.loader.LoadBytes(data, format)
	if res == nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid document", loadErr.Error())
		return
	}

	issues := loader.Issues(loadErr)
	resp := validateResponse{
		Valid:    len(issues) == 0,
		Options:  len(res.Options),
		Bindings: len(res.Bindings),
		Issues:   issues,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		writeError(w, http.StatusServiceUnavailable, "Reload unavailable", "no settings file is configured")
		return
	}

	snap, issues, err := h.reloader.Reload(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrInvalidSettings) || errors.Is(err, document.ErrSyntax) {
			writeJSON(w, http.StatusUnprocessableEntity, reloadResponse{
				Error:   "Settings rejected",
				Details: err.Error(),
				Issues:  issues,
			})
			return
		}
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "Settings file not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	resp := reloadResponse{
		Revision:  snap.Revision,
		UpdatedAt: snap.UpdatedAt,
		Options:   len(snap.Configured),
		Bindings:  len(snap.Bindings),
		Issues:    issues,
		Message:   "Settings reloaded successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) settingFor(opt schema.Option, snap storage.Snapshot) settingResponse {
	_, configured := snap.Configured[opt.Path]
	return settingResponse{
		optionDescriptor: describeOption(opt),
		Value:            snap.Options[opt.Path],
		Configured:       configured,
		Revision:         snap.Revision,
	}
}

func (h *Handler) writeUnknownOption(w http.ResponseWriter, path string) {
	details := fmt.Sprintf("unknown option %q", path)
	if suggestion := h.schema.Suggest(path); suggestion != "" {
		writeError(w, http.StatusNotFound, "Option not found", details, fmt.Sprintf("did you mean %q?", suggestion))
		return
	}
	writeError(w, http.StatusNotFound, "Option not found", details)
}

func describeOption(opt schema.Option) optionDescriptor {
	return optionDescriptor{
		Path:        opt.Path,
		Type:        opt.Type.Name(),
		Default:     opt.Default,
		Nullable:    opt.Nullable,
		Section:     opt.Section(),
		Description: opt.Description,
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type settingRequest struct {
	Value json.RawMessage `json:"value"`
}

type optionDescriptor struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	Default     any    `json:"default"`
	Nullable    bool   `json:"nullable,omitempty"`
	Section     string `json:"section"`
	Description string `json:"description,omitempty"`
}

type settingResponse struct {
	optionDescriptor
	Value      any    `json:"value"`
	Configured bool   `json:"configured"`
	Revision   string `json:"revision"`
	Message    string `json:"message,omitempty"`
}

type settingsResponse struct {
	Revision  string         `json:"revision"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Options   map[string]any `json:"options"`
}

type bindingsResponse struct {
	Revision string          `json:"revision"`
	Bindings []binding.Entry `json:"bindings"`
}

type schemaResponse struct {
	Options []optionDescriptor `json:"options"`
}

type validateResponse struct {
	Valid    bool           `json:"valid"`
	Options  int            `json:"options"`
	Bindings int            `json:"bindings"`
	Issues   []loader.Issue `json:"issues"`
}

type reloadResponse struct {
	Revision  string         `json:"revision,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
	Options   int            `json:"options"`
	Bindings  int            `json:"bindings"`
	Issues    []loader.Issue `json:"issues,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	Details   string         `json:"details,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Revision  string    `json:"revision"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
