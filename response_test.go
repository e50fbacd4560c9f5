package tobi_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/tobi"
)

var fixedClock = tobi.WithClock(func() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
})

func TestBuildHeader(t *testing.T) {
	tests := []struct {
		name string
		code tobi.StatusCode
		opts []tobi.HeaderOption
		want string
	}{
		{
			name: "ok with length",
			code: tobi.StatusOK,
			opts: []tobi.HeaderOption{fixedClock, tobi.WithLength(5)},
			want: "HTTP/1.1 200 OK\r\n" +
				"Date: Tue, 02 Jan 2024 03:04:05 GMT\r\n" +
				"Server: Tobi\r\n" +
				"Connection: close\r\n" +
				"Content-Type: text/html; charset=UTF-8\r\n" +
				"Content-Length: 5\r\n" +
				"\r\n",
		},
		{
			name: "no length",
			code: tobi.StatusNotFound,
			opts: []tobi.HeaderOption{fixedClock},
			want: "HTTP/1.1 404 NOT FOUND\r\n" +
				"Date: Tue, 02 Jan 2024 03:04:05 GMT\r\n" +
				"Server: Tobi\r\n" +
				"Connection: close\r\n" +
				"Content-Type: text/html; charset=UTF-8\r\n" +
				"\r\n",
		},
		{
			name: "custom content type and zero length",
			code: tobi.StatusOK,
			opts: []tobi.HeaderOption{fixedClock, tobi.WithContentType("text/css;"), tobi.WithLength(0)},
			want: "HTTP/1.1 200 OK\r\n" +
				"Date: Tue, 02 Jan 2024 03:04:05 GMT\r\n" +
				"Server: Tobi\r\n" +
				"Connection: close\r\n" +
				"Content-Type: text/css;\r\n" +
				"Content-Length: 0\r\n" +
				"\r\n",
		},
		{
			name: "content type omitted",
			code: tobi.StatusOK,
			opts: []tobi.HeaderOption{fixedClock, tobi.WithContentType("")},
			want: "HTTP/1.1 200 OK\r\n" +
				"Date: Tue, 02 Jan 2024 03:04:05 GMT\r\n" +
				"Server: Tobi\r\n" +
				"Connection: close\r\n" +
				"\r\n",
		},
		{
			name: "unknown code sent as 500",
			code: tobi.StatusCode(302),
			opts: []tobi.HeaderOption{fixedClock},
			want: "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n" +
				"Date: Tue, 02 Jan 2024 03:04:05 GMT\r\n" +
				"Server: Tobi\r\n" +
				"Connection: close\r\n" +
				"Content-Type: text/html; charset=UTF-8\r\n" +
				"\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tobi.BuildHeader(tt.code, tt.opts...))
		})
	}
}

func TestBuildHeader_DateIsGMT(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	header := tobi.BuildHeader(tobi.StatusOK, tobi.WithClock(func() time.Time {
		return time.Date(2024, 1, 2, 8, 4, 5, 0, loc)
	}))

	assert.Contains(t, header, "Date: Tue, 02 Jan 2024 03:04:05 GMT\r\n")
}

func TestErrorBody(t *testing.T) {
	_, ok := tobi.ErrorBody(tobi.StatusOK)
	assert.False(t, ok)

	for _, code := range []tobi.StatusCode{
		tobi.StatusBadRequest,
		tobi.StatusNotFound,
		tobi.StatusMethodNotAllowed,
		tobi.StatusInternalServerError,
	} {
		body, ok := tobi.ErrorBody(code)
		require.True(t, ok)
		assert.Contains(t, string(body), "Error "+strconv.Itoa(int(code)))
		assert.Contains(t, string(body), `<a href="/">home page</a>`)
	}

	unknown, ok := tobi.ErrorBody(tobi.StatusCode(418))
	require.True(t, ok)
	internal, _ := tobi.ErrorBody(tobi.StatusInternalServerError)
	assert.Equal(t, internal, unknown)
}

func TestErrorBody_ReturnsCopy(t *testing.T) {
	body, _ := tobi.ErrorBody(tobi.StatusNotFound)
	body[0] = 'X'

	again, _ := tobi.ErrorBody(tobi.StatusNotFound)
	assert.Equal(t, byte('<'), again[0])
}

func TestErrorResponse(t *testing.T) {
	req := tobi.RequestLine{Method: "POST", Target: "/"}
	resp := tobi.ErrorResponse(tobi.StatusMethodNotAllowed, req)

	assert.Equal(t, tobi.StatusMethodNotAllowed, resp.Code)
	assert.Equal(t, req, resp.Request)
	assert.True(t, strings.HasPrefix(resp.Header, "HTTP/1.1 405 METHOD NOT ALLOWED\r\n"))
	assert.Contains(t, resp.Header, "Content-Length: "+strconv.Itoa(len(resp.Body))+"\r\n")
	assert.True(t, strings.HasSuffix(resp.Header, "\r\n\r\n"))
}
