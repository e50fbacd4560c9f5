package tobi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ContentStore fetches files and turns the on-disk outcome into a response.
//
// Implementations own the mapping from filesystem results to status codes:
// a readable regular file is a 200 carrying the file bytes, a missing file
// is the canned 404, and a file that exists but cannot be read is the canned
// 500. Read never fails; every outcome is a Response.
type ContentStore interface {
	// Read serves path, which was resolved under root.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - root: The server root the path was resolved against
	//   - path: The resolved filesystem path
	Read(ctx context.Context, root, path string) Response
}

// Engine turns raw request text into a response: validate, then either
// resolve and fetch the file, or build the canned error.
type Engine struct {
	settings SettingsSource
	storage  ContentStore
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

func NewEngine(settings SettingsSource, storage ContentStore, opts ...EngineOption) (*Engine, error) {
	if settings == nil {
		return nil, fmt.Errorf("new engine: %w: settings cannot be nil", ErrInvalidInput)
	}
	if storage == nil {
		return nil, fmt.Errorf("new engine: %w: storage cannot be nil", ErrInvalidInput)
	}

	e := &Engine{
		settings: settings,
		storage:  storage,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Respond produces the response for one request. The settings snapshot is
// read once, so a concurrent change of the server root affects the next
// request, never half of this one.
func (e *Engine) Respond(ctx context.Context, text string) Response {
	code, req := ValidateRequest(text)
	if code != StatusOK {
		e.logger.Debug("rejected request", "status", int(code), "method", req.Method, "target", req.Target)
		return ErrorResponse(code, req)
	}

	if err := ctx.Err(); err != nil {
		e.logger.Warn("request abandoned", "err", err)
		return ErrorResponse(StatusInternalServerError, req)
	}

	root := e.settings.Snapshot().Path
	path := ResolvePath(root, FirstLine(text))

	resp := e.storage.Read(ctx, root, path)
	resp.Request = req
	if !resp.Code.IsValid() {
		e.logger.Error("content store returned unknown status", "status", int(resp.Code), "path", path)
		return ErrorResponse(StatusInternalServerError, req)
	}

	e.logger.Debug("resolved request", "target", req.Target, "path", path, "status", int(resp.Code))
	return resp
}

// IsClientError reports whether err is a problem with what the peer sent
// rather than with the transport.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIncompleteRequest) ||
		errors.Is(err, ErrRequestTooLarge) ||
		errors.Is(err, ErrInvalidEncoding)
}
