package tobi

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// headerLineRegex matches a header field name made of letters, hyphens and
// spaces followed by a colon. Anything may follow the colon.
var headerLineRegex = regexp.MustCompile(`^[A-Za-z -]+:`)

var acceptedVersions = map[string]bool{
	"1.1\r": true,
	"1.0\r": true,
}

// ParseRequestLine splits the first line of a request into its parts.
//
// The line is split on single spaces and must yield exactly three tokens,
// otherwise ErrInvalidInput is returned. The third token must contain a "/"
// separating protocol and version, otherwise ErrMalformedRequestLine is
// returned. The line is expected to still carry its trailing "\r".
func ParseRequestLine(line string) (RequestLine, error) {
	tokens := strings.Split(line, " ")
	if len(tokens) != 3 {
		return RequestLine{}, fmt.Errorf("parse request line: %w: expected 3 tokens, got %d", ErrInvalidInput, len(tokens))
	}

	rl := RequestLine{
		Method: tokens[0],
		Target: tokens[1],
	}

	proto := strings.Split(tokens[2], "/")
	if len(proto) < 2 {
		return rl, fmt.Errorf("parse request line: %w: %q has no version", ErrMalformedRequestLine, tokens[2])
	}
	rl.Protocol = proto[0]
	rl.Version = proto[1]

	return rl, nil
}

// ValidateRequest checks raw request text and returns the status code the
// request deserves, along with whatever part of the request line could be
// parsed.
//
//   - 400 when the request line does not have exactly three tokens, or a
//     header line is neither "Name: value", "\r" nor empty
//   - 405 for anything other than GET over HTTP/1.0 or HTTP/1.1
//   - 500 when the protocol token cannot be split into protocol and version
//   - 200 otherwise
func ValidateRequest(text string) (StatusCode, RequestLine) {
	lines := strings.Split(text, "\n")

	rl, err := ParseRequestLine(lines[0])
	if errors.Is(err, ErrMalformedRequestLine) {
		return StatusInternalServerError, rl
	}
	if err != nil {
		return StatusBadRequest, rl
	}

	if rl.Method != "GET" || rl.Protocol != "HTTP" || !acceptedVersions[rl.Version] {
		return StatusMethodNotAllowed, rl
	}

	for _, line := range lines[1:] {
		if line == "" || line == "\r" {
			continue
		}
		if !headerLineRegex.MatchString(line) {
			return StatusBadRequest, rl
		}
	}

	return StatusOK, rl
}

// FirstLine returns the request line without its line terminator.
func FirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\r\n")
	return line
}
