package tobi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const readChunkSize = 1024

var headerTerminator = []byte("\r\n\r\n")

// ReadRequest reads from r until the received bytes end with an empty line
// and returns them as text.
//
// It fails without returning partial text when the read fails, the peer
// stops sending before the terminator, ctx is done, the bytes are not valid
// UTF-8, or more than maxBytes arrive (maxBytes <= 0 disables the limit).
// r is not closed.
func ReadRequest(ctx context.Context, r io.Reader, maxBytes int) (string, error) {
	var data []byte
	buf := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("read request: %w", err)
		}

		n, err := r.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			if maxBytes > 0 && len(data) > maxBytes {
				return "", fmt.Errorf("read request: %w: more than %d bytes", ErrRequestTooLarge, maxBytes)
			}
			if bytes.HasSuffix(data, headerTerminator) {
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("read request: %w after %d bytes", ErrIncompleteRequest, len(data))
			}
			return "", fmt.Errorf("read request: %w", err)
		}
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("read request: %w", ErrInvalidEncoding)
	}

	return string(data), nil
}
