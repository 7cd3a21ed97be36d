package static

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/freekieb7/pebble/filesystem"
	"github.com/freekieb7/pebble/http"
)

var tracer = otel.Tracer("github.com/freekieb7/pebble/static")

// Handler serves files from a document root over GET and HEAD.
type Handler struct {
	root   string
	fsys   filesystem.Filesystem
	logger *slog.Logger
}

func NewHandler(root string, fsys filesystem.Filesystem, logger *slog.Logger) *Handler {
	return &Handler{
		root:   root,
		fsys:   fsys,
		logger: logger,
	}
}

// Serve maps one request to a response. Resolution and read failures are
// converted to status codes here, at a single point.
func (h *Handler) Serve(ctx context.Context, req *http.Request) *http.Response {
	ctx, span := tracer.Start(ctx, "serve_file")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path),
	)

	if req.Method != "GET" && req.Method != "HEAD" {
		return http.NewResponse(http.StatusMethodNotAllowed)
	}

	path, err := Resolve(h.fsys, h.root, req.Path)
	if err != nil {
		h.logger.Debug("request rejected", "path", req.Path, "error", err)
		return http.NewResponse(statusFor(err))
	}

	content, err := h.fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return http.NewResponse(http.StatusForbidden)
		}
		h.logger.Error("file read failed", "path", path, "error", err)
		return http.NewResponse(http.StatusInternalServerError)
	}

	resp := http.NewResponse(http.StatusOK)
	resp.AddHeader("Content-Type", ContentType(filepath.Ext(path)))
	resp.AddHeader("Content-Length", strconv.Itoa(len(content)))

	// HEAD answers with headers only.
	if req.Method == "GET" {
		resp.Body = content
	}

	return resp
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
