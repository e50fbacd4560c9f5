package tobi

import (
	"strconv"
	"strings"
	"time"
)

// ServerName is sent in the Server header of every response.
const ServerName = "Tobi"

// DefaultContentType is used when a response does not name its own type.
const DefaultContentType = "text/html; charset=UTF-8"

const dateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

var errorPages = map[StatusCode][]byte{
	StatusBadRequest: []byte(`<html><body><center><h1>Error 400: Bad request error</h1></center>` +
		`<p>Head back to <a href="/">home page</a>.</p></body></html>`),
	StatusNotFound: []byte(`<html><body><center><h1>Error 404: Not found</h1></center>` +
		`<p>Head back to <a href="/">home page</a>.</p></body></html>`),
	StatusMethodNotAllowed: []byte(`<html><body><center><h1>Error 405: Method not allowed</h1></center>` +
		`<p>Head back to <a href="/">home page</a>.</p></body></html>`),
	StatusInternalServerError: []byte(`<html><body><center><h1>Error 500: Internal server error</h1></center>` +
		`<p>Head back to <a href="/">home page</a>.</p></body></html>`),
}

type headerOptions struct {
	length      int64
	hasLength   bool
	contentType string
	now         func() time.Time
}

// HeaderOption customises BuildHeader.
type HeaderOption func(*headerOptions)

// WithLength adds a Content-Length header. Without it the field is omitted.
func WithLength(n int64) HeaderOption {
	return func(o *headerOptions) {
		o.length = n
		o.hasLength = true
	}
}

// WithContentType overrides the default content type. An empty string
// drops the Content-Type line altogether.
func WithContentType(ct string) HeaderOption {
	return func(o *headerOptions) {
		o.contentType = ct
	}
}

// WithClock sets the time source for the Date header.
func WithClock(now func() time.Time) HeaderOption {
	return func(o *headerOptions) {
		o.now = now
	}
}

// BuildHeader renders the status line and header block for code,
// terminated by the blank line. Unknown codes are sent as 500.
func BuildHeader(code StatusCode, opts ...HeaderOption) string {
	o := headerOptions{
		contentType: DefaultContentType,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var b strings.Builder
	b.WriteString("HTTP/1.1 ")
	b.WriteString(code.String())
	b.WriteString("\r\n")
	b.WriteString("Date: " + o.now().UTC().Format(dateFormat) + "\r\n")
	b.WriteString("Server: " + ServerName + "\r\n")
	b.WriteString("Connection: close\r\n")
	if o.contentType != "" {
		b.WriteString("Content-Type: " + o.contentType + "\r\n")
	}
	if o.hasLength {
		b.WriteString("Content-Length: " + strconv.FormatInt(o.length, 10) + "\r\n")
	}
	b.WriteString("\r\n")

	return b.String()
}

// ErrorBody returns the canned HTML document for an error code. The
// second result is false for 200, which has no canned body. Unknown codes
// get the 500 document. The returned slice is a copy.
func ErrorBody(code StatusCode) ([]byte, bool) {
	if code == StatusOK {
		return nil, false
	}
	page := errorPages[code.Normalize()]
	return append([]byte(nil), page...), true
}

// ErrorResponse builds the canned response for an error code. The
// Content-Length is the length of the body being sent.
func ErrorResponse(code StatusCode, req RequestLine) Response {
	code = code.Normalize()
	body, _ := ErrorBody(code)
	return Response{
		Code:    code,
		Header:  BuildHeader(code, WithLength(int64(len(body)))),
		Body:    body,
		Request: req,
	}
}
