// Package filesystem serves file contents for tobi from the local disk.
// Files are opened through os.Root so a resolved path can never reach
// outside the server root, and content types come from the file extension.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/sagarc03/tobi"
)

// Store reads files from disk and turns the outcome into a response.
type Store struct {
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for read failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a new Store.
func NewStore(opts ...Option) *Store {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read serves path, which must lie under root.
//
// A regular file is answered with 200, its bytes and its content type. A
// path that does not exist, is not a regular file, or lies outside root is
// answered with the canned 404. A file that exists but cannot be read is
// answered with the canned 500.
func (s *Store) Read(ctx context.Context, root, path string) tobi.Response {
	data, err := s.ReadFile(ctx, root, path)
	if err != nil {
		switch {
		case errors.Is(err, tobi.ErrNotFound):
			return tobi.ErrorResponse(tobi.StatusNotFound, tobi.RequestLine{})
		case !errors.Is(err, tobi.ErrInternal):
			s.logger.Debug("read abandoned", "path", path, "err", err)
			return tobi.ErrorResponse(tobi.StatusInternalServerError, tobi.RequestLine{})
		}
		s.logger.Warn("failed to read file", "path", path, "err", err)
		return tobi.ErrorResponse(tobi.StatusInternalServerError, tobi.RequestLine{})
	}

	opts := []tobi.HeaderOption{tobi.WithLength(int64(len(data)))}
	contentType, ok := DetectContentType(path)
	if !ok {
		s.logger.Debug("no content type for file", "path", path)
	}
	opts = append(opts, tobi.WithContentType(contentType))

	return tobi.Response{
		Code:   tobi.StatusOK,
		Header: tobi.BuildHeader(tobi.StatusOK, opts...),
		Body:   data,
	}
}

// ReadFile returns the full contents of path. It returns tobi.ErrNotFound
// when path is missing, is not a regular file, or is outside root, and an
// error wrapping tobi.ErrInternal when the file exists but cannot be read.
func (s *Store) ReadFile(ctx context.Context, root, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := relativeName(root, path)
	if err != nil {
		return nil, err
	}

	r, err := os.OpenRoot(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, tobi.ErrNotFound
		}
		return nil, fmt.Errorf("open root: %w: %w", tobi.ErrInternal, err)
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil {
			s.logger.Warn("failed to close root", "root", root, "err", closeErr)
		}
	}()

	info, err := r.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return nil, tobi.ErrNotFound
	}

	f, err := r.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open file: %w: %w", tobi.ErrInternal, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("failed to close file", "path", path, "err", closeErr)
		}
	}()

	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("read file: %w: %w", tobi.ErrInternal, err)
	}

	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func relativeName(root, path string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%s is outside the server root: %w", path, tobi.ErrNotFound)
	}
	return rel, nil
}

// DetectContentType maps a file name to the Content-Type sent with it.
// HTML gets an explicit UTF-8 charset; other known types are sent as
// "type/subtype;". The second result is false when the extension is not
// known, in which case no Content-Type should be sent.
func DetectContentType(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", false
	}

	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil || mediaType == "" {
		return "", false
	}

	if mediaType == "text/html" {
		return tobi.DefaultContentType, true
	}

	return mediaType + ";", true
}
