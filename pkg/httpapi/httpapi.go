// Package httpapi serves widget spec trees over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-typedwidget/pkg/builder"
	"github.com/goliatone/go-typedwidget/pkg/codec"
	"github.com/goliatone/go-typedwidget/pkg/definition"
	"github.com/goliatone/go-typedwidget/pkg/visibility"
	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// Error codes returned in the {error, code} body.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidProperty = "INVALID_PROPERTY"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeDepthExceeded   = "DEPTH_EXCEEDED"
	CodeNotListable     = "NOT_LISTABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// maxBodySize caps POST payloads.
const maxBodySize = 1 << 20

// Handler exposes a Builder through a chi router.
type Handler struct {
	builder *builder.Builder
	lister  definition.Lister
	format  codec.Format
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithLister enables GET /definitions.
func WithLister(lister definition.Lister) Option {
	return func(h *Handler) {
		h.lister = lister
	}
}

// WithFormat sets the response format used when a request does not ask for
// one.
func WithFormat(format codec.Format) Option {
	return func(h *Handler) {
		if format != "" {
			h.format = format
		}
	}
}

// New creates a Handler around b.
func New(b *builder.Builder, options ...Option) *Handler {
	h := &Handler{
		builder: b,
		format:  codec.FormatJSON,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes returns the router serving the API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/definitions", h.listDefinitions)
	r.Get("/widgets/{id}", h.getWidget)
	r.Post("/widgets/{id}", h.postWidget)
	return r
}

func (h *Handler) listDefinitions(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeError(w, http.StatusNotImplemented, CodeNotListable, "definitions cannot be listed")
		return
	}
	ids := h.lister.IDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"definitions": ids})
}

func (h *Handler) getWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := r.URL.Query()

	format, err := h.requestFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, err.Error())
		return
	}
	policy, err := h.policyFromQuery(query.Get("nonRequired"), query.Get("readOnly"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, err.Error())
		return
	}

	var spec widget.Spec
	if raw := query.Get("items"); raw != "" {
		size, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidArgument, "items must be an integer: "+raw)
			return
		}
		if query.Get("property") != "" {
			writeError(w, http.StatusBadRequest, CodeInvalidArgument, "items cannot be combined with property")
			return
		}
		spec, err = h.builder.BuildListRequest(r.Context(), builder.ListRequest{
			ID:     id,
			Size:   size,
			Policy: &policy,
		})
	} else {
		spec, err = h.builder.Build(r.Context(), builder.Request{
			ID:       id,
			Property: query.Get("property"),
			Policy:   &policy,
		})
	}
	if err != nil {
		h.writeBuildError(w, r, err)
		return
	}
	h.writeSpec(w, spec, format)
}

// widgetRequest is the POST /widgets/{id} body.
type widgetRequest struct {
	Property    string         `json:"property"`
	Values      map[string]any `json:"values"`
	NonRequired *bool          `json:"nonRequired"`
	ReadOnly    *bool          `json:"readOnly"`
}

func (h *Handler) postWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format, err := h.requestFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, err.Error())
		return
	}

	var body widgetRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "invalid request body: "+err.Error())
		return
	}
	policy := h.builder.Policy()
	if body.NonRequired != nil {
		policy.IncludeNonRequired = *body.NonRequired
	}
	if body.ReadOnly != nil {
		policy.IncludeReadOnly = *body.ReadOnly
	}

	spec, err := h.builder.Build(r.Context(), builder.Request{
		ID:       id,
		Property: body.Property,
		Values:   body.Values,
		Policy:   &policy,
	})
	if err != nil {
		h.writeBuildError(w, r, err)
		return
	}
	h.writeSpec(w, spec, format)
}

func (h *Handler) requestFormat(r *http.Request) (codec.Format, error) {
	if raw := r.URL.Query().Get("format"); raw != "" {
		return codec.ParseFormat(raw)
	}
	accept := r.Header.Get("Accept")
	for _, format := range codec.Formats() {
		if strings.Contains(accept, format.ContentType()) {
			return format, nil
		}
	}
	return h.format, nil
}

func (h *Handler) policyFromQuery(nonRequired, readOnly string) (visibility.Policy, error) {
	policy := h.builder.Policy()
	if nonRequired != "" {
		value, err := strconv.ParseBool(nonRequired)
		if err != nil {
			return policy, errors.New("nonRequired must be a boolean: " + nonRequired)
		}
		policy.IncludeNonRequired = value
	}
	if readOnly != "" {
		value, err := strconv.ParseBool(readOnly)
		if err != nil {
			return policy, errors.New("readOnly must be a boolean: " + readOnly)
		}
		policy.IncludeReadOnly = value
	}
	return policy, nil
}

func (h *Handler) writeSpec(w http.ResponseWriter, spec widget.Spec, format codec.Format) {
	payload, err := codec.Marshal(spec, format)
	if err != nil {
		h.logger.Error("httpapi: encode spec", "format", string(format), "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// writeBuildError maps builder and resolver errors to HTTP responses.
func (h *Handler) writeBuildError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, definition.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, builder.ErrInvalidProperty):
		writeError(w, http.StatusUnprocessableEntity, CodeInvalidProperty, err.Error())
	case errors.Is(err, builder.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, err.Error())
	case errors.Is(err, builder.ErrDepthExceeded):
		h.logger.Error("httpapi: malformed definition", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, CodeDepthExceeded, err.Error())
	default:
		h.logger.Error("httpapi: build failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
