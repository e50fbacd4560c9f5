package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/tobi"
)

func TestE2E_FileServer(t *testing.T) {
	port := getOpenPort(t)
	startServer(t, ServerConfig{
		Port:   port,
		Root:   writeSite(t),
		DBType: "sqlite",
		DBDSN:  filepath.Join(t.TempDir(), "unused.db"),
	})
	base := fmt.Sprintf("http://127.0.0.1:%d", port)

	t.Run("GET / serves index.html", func(t *testing.T) {
		resp, body := httpGet(t, base+"/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "<h1>home</h1>", string(body))
		assert.Equal(t, "text/html; charset=UTF-8", resp.Header.Get("Content-Type"))
		assert.Equal(t, "Tobi", resp.Header.Get("Server"))
	})

	t.Run("directory target serves its index", func(t *testing.T) {
		resp, body := httpGet(t, base+"/docs/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "<h1>docs</h1>", string(body))
	})

	t.Run("query string is ignored", func(t *testing.T) {
		resp, body := httpGet(t, base+"/app.js?v=3")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "console.log(1)", string(body))
	})

	t.Run("missing file is 404", func(t *testing.T) {
		resp, body := httpGet(t, base+"/nope.html")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(body), "Error 404")
	})

	t.Run("DELETE is 405", func(t *testing.T) {
		out := rawRequest(t, port, "DELETE / HTTP/1.1\r\nHost: x\r\n\r\n")
		assert.True(t, strings.HasPrefix(out, "HTTP/1.1 405 METHOD NOT ALLOWED\r\n"), out)
	})

	t.Run("HTTP/2.0 is 405", func(t *testing.T) {
		out := rawRequest(t, port, "GET / HTTP/2.0\r\nHost: x\r\n\r\n")
		assert.True(t, strings.HasPrefix(out, "HTTP/1.1 405 METHOD NOT ALLOWED\r\n"), out)
	})

	t.Run("bad header is 400", func(t *testing.T) {
		out := rawRequest(t, port, "GET / HTTP/1.1\r\nX_Bad: 1\r\n\r\n")
		assert.True(t, strings.HasPrefix(out, "HTTP/1.1 400 BAD REQUEST\r\n"), out)
	})
}

func TestE2E_AccessLog_SQLite(t *testing.T) {
	runAccessLogTests(t, "sqlite", filepath.Join(t.TempDir(), "access.db"), "")
}

func TestE2E_AccessLog_Postgres(t *testing.T) {
	runAccessLogTests(t, "postgres", getSharedPostgresDatabase(t), "e2e_access_log")
}

// runAccessLogTests drives the server, the admin API and the access
// subcommands against one database.
func runAccessLogTests(t *testing.T, dbType, dsn, table string) {
	t.Helper()

	root := writeSite(t)
	port := getOpenPort(t)
	adminPort := getOpenPort(t)

	cfg := ServerConfig{
		Port:      port,
		AdminPort: adminPort,
		Root:      root,
		AccessLog: true,
		DBType:    dbType,
		DBDSN:     dsn,
		Table:     table,
	}
	configPath := startServer(t, cfg)

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	admin := fmt.Sprintf("http://127.0.0.1:%d", adminPort)

	resp, _ := httpGet(t, admin+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	httpGet(t, base+"/")
	httpGet(t, base+"/docs/")
	httpGet(t, base+"/missing.css")

	t.Run("stats count served requests", func(t *testing.T) {
		require.Eventually(t, func() bool {
			_, body := httpGet(t, admin+"/stats")
			var st tobi.Stats
			return json.Unmarshal(body, &st) == nil && st.Served >= 3
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("access endpoint lists entries", func(t *testing.T) {
		var result tobi.ListResult
		require.Eventually(t, func() bool {
			_, body := httpGet(t, admin+"/access?prefix=/")
			return json.Unmarshal(body, &result) == nil && len(result.Items) >= 3
		}, 5*time.Second, 50*time.Millisecond)

		targets := make([]string, 0, len(result.Items))
		for _, item := range result.Items {
			targets = append(targets, item.Target)
		}
		assert.Contains(t, targets, "/docs/")
		assert.Contains(t, targets, "/missing.css")
	})

	t.Run("changing Path re-roots later requests", func(t *testing.T) {
		other := t.TempDir()
		require.NoError(t, writeFile(other, "index.html", "<h1>other</h1>"))

		body := fmt.Sprintf(`{"value":%q}`, other+"/")
		req, err := http.NewRequest(http.MethodPut, admin+"/settings/Path", bytes.NewBufferString(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		putResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = putResp.Body.Close()
		require.Equal(t, http.StatusOK, putResp.StatusCode)

		_, page := httpGet(t, base+"/")
		assert.Equal(t, "<h1>other</h1>", string(page))
	})

	t.Run("access list command", func(t *testing.T) {
		out := runCommand(t, configPath, "access", "list", "--json", "--all")

		var result tobi.ListResult
		require.NoError(t, json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &result))
		assert.GreaterOrEqual(t, len(result.Items), 3)
	})

	t.Run("access prune command", func(t *testing.T) {
		out := runCommand(t, configPath, "access", "prune", "--older-than", "1ns")
		assert.Contains(t, out, "Removed")

		_, body := httpGet(t, admin+"/access")
		var result tobi.ListResult
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Empty(t, result.Items)
	})
}

func TestE2E_MigrateAndConfig(t *testing.T) {
	cfg := ServerConfig{
		Port:   getOpenPort(t),
		Root:   writeSite(t),
		DBType: "sqlite",
		DBDSN:  filepath.Join(t.TempDir(), "migrate.db"),
	}
	configPath := createConfigFile(t, cfg)

	runCommand(t, configPath, "migrate")
	runCommand(t, configPath, "migrate")

	out := runCommand(t, configPath, "config")
	assert.Contains(t, out, fmt.Sprintf("port: %d", cfg.Port))
	assert.Contains(t, out, "access_log: tobi_access_log")
}
