package tobi

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// StatusCode is one of the five status codes the server ever sends.
type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusMethodNotAllowed    StatusCode = 405
	StatusInternalServerError StatusCode = 500
)

var statusPhrases = map[StatusCode]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "BAD REQUEST",
	StatusNotFound:            "NOT FOUND",
	StatusMethodNotAllowed:    "METHOD NOT ALLOWED",
	StatusInternalServerError: "INTERNAL SERVER ERROR",
}

// StatusCodes lists every code the server can send, in ascending order.
func StatusCodes() []StatusCode {
	return []StatusCode{
		StatusOK,
		StatusBadRequest,
		StatusNotFound,
		StatusMethodNotAllowed,
		StatusInternalServerError,
	}
}

// IsValid reports whether c is one of the known status codes.
func (c StatusCode) IsValid() bool {
	_, ok := statusPhrases[c]
	return ok
}

// Normalize returns c, or StatusInternalServerError for unknown codes.
func (c StatusCode) Normalize() StatusCode {
	if !c.IsValid() {
		return StatusInternalServerError
	}
	return c
}

// Phrase returns the canonical reason phrase, e.g. "NOT FOUND".
func (c StatusCode) Phrase() string {
	return statusPhrases[c.Normalize()]
}

// String renders "<code> <PHRASE>" as it appears on the status line.
func (c StatusCode) String() string {
	n := c.Normalize()
	return fmt.Sprintf("%d %s", int(n), n.Phrase())
}

// RequestLine is the first line of a request split into its parts.
// Version keeps the trailing carriage return left over from splitting
// the request on "\n".
type RequestLine struct {
	Method   string
	Target   string
	Protocol string
	Version  string
}

// Response is a fully rendered reply for one connection.
type Response struct {
	Code    StatusCode
	Header  string
	Body    []byte
	Request RequestLine
}

// Bytes returns header and body as the single buffer written to the wire.
func (r Response) Bytes() []byte {
	out := make([]byte, 0, len(r.Header)+len(r.Body))
	out = append(out, r.Header...)
	return append(out, r.Body...)
}

// Settings is the process-wide server configuration read by the engine.
type Settings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Path string `json:"path"`
}

// SettingsSource hands out the current settings snapshot.
type SettingsSource interface {
	Snapshot() Settings
}

// Stats is a point-in-time view of the dispatcher counters.
type Stats struct {
	Accepted int64                `json:"accepted"`
	InFlight int64                `json:"in_flight"`
	Served   int64                `json:"served"`
	Dropped  int64                `json:"dropped"`
	ByStatus map[StatusCode]int64 `json:"by_status"`
}

// AccessEntry is one served connection as recorded in the access log.
type AccessEntry struct {
	ID             uuid.UUID `json:"id"`
	RemoteAddr     string    `json:"remote_addr"`
	Method         string    `json:"method"`
	Target         string    `json:"target"`
	Status         int       `json:"status"`
	BytesSent      int64     `json:"bytes_sent"`
	DurationMicros int64     `json:"duration_us"`
	CreatedAt      time.Time `json:"created_at"`
}

// Page size bounds applied to ListQuery.Limit.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ListQuery selects a page of access entries.
type ListQuery struct {
	TargetPrefix string
	Limit        int
	Cursor       string
}

// ListResult is one page of access entries. NextCursor is empty on the
// last page.
type ListResult struct {
	Items      []AccessEntry `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// NormalizedLimit clamps Limit into [1, MaxListLimit], using
// DefaultListLimit when unset.
func (q ListQuery) NormalizedLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultListLimit
	case q.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return q.Limit
	}
}

// Tables holds configurable table names for the access log.
type Tables struct {
	AccessLog string `mapstructure:"access_log" yaml:"access_log"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.AccessLog == "" {
		return errors.New("validate tables: access log table name cannot be empty")
	}

	if !IsValidTableName(t.AccessLog) {
		return fmt.Errorf("validate tables: invalid access log table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.AccessLog)
	}

	return nil
}
