package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/tobi"
)

// SettingsStore is the live settings the admin API reads and changes.
type SettingsStore interface {
	Snapshot() tobi.Settings
	Set(key string, value any) bool
}

// StatsProvider reports connection counters.
type StatsProvider interface {
	Stats() tobi.Stats
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

// HandlerConfig wires the admin API to the running server. AccessLog may
// be nil when access logging is disabled.
type HandlerConfig struct {
	CORS      CORSConfig
	Settings  SettingsStore
	Stats     StatsProvider
	AccessLog tobi.AccessLogRepo
	Logger    *slog.Logger
}

// Handler serves the admin API.
type Handler struct {
	config HandlerConfig
}

// NewHandler creates a new Handler with the given configuration.
func NewHandler(config *HandlerConfig) (*Handler, error) {
	if config.Settings == nil {
		return nil, fmt.Errorf("new handler: %w: settings cannot be nil", tobi.ErrInvalidInput)
	}
	if config.Stats == nil {
		return nil, fmt.Errorf("new handler: %w: stats cannot be nil", tobi.ErrInvalidInput)
	}

	cfg := *config
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{config: cfg}, nil
}

// Router returns an http.Handler with the admin routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.config.Logger))
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)
	r.Get("/stats", h.handleStats)
	r.Get("/settings", h.handleGetSettings)
	r.Put("/settings/{key}", h.handlePutSetting)
	r.Get("/access", h.handleListAccess)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, h.config.Stats.Stats())
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, h.config.Settings.Snapshot())
}

type setSettingRequest struct {
	Value any `json:"value"`
}

func (h *Handler) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body setSettingRequest
	if err := dec.Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request body must be {\"value\": ...}")
		return
	}

	value, ok := settingValue(body.Value)
	if !ok || !h.config.Settings.Set(key, value) {
		HandleError(w, fmt.Errorf("set %q: %w", key, ErrInvalidSetting))
		return
	}

	h.config.Logger.Info("setting changed", "key", key, "value", value)
	_ = WriteJSON(w, http.StatusOK, h.config.Settings.Snapshot())
}

// settingValue narrows a decoded JSON value to the string and int values
// the settings store accepts.
func settingValue(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		n, err := strconv.Atoi(val.String())
		if err != nil {
			return nil, false
		}
		return n, true
	default:
		return nil, false
	}
}

func (h *Handler) handleListAccess(w http.ResponseWriter, r *http.Request) {
	if h.config.AccessLog == nil {
		WriteError(w, http.StatusNotFound, "access_log_disabled", "Access log is not enabled")
		return
	}

	prefix := r.URL.Query().Get("prefix")
	limitStr := r.URL.Query().Get("limit")
	cursor := r.URL.Query().Get("cursor")

	limit := tobi.DefaultListLimit
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = max(1, min(tobi.MaxListLimit, parsed))
		}
	}

	if _, err := tobi.DecodeCursor(cursor); err != nil {
		HandleError(w, errors.Join(tobi.ErrInvalidInput, err))
		return
	}

	result, err := h.config.AccessLog.List(r.Context(), tobi.ListQuery{
		TargetPrefix: prefix,
		Limit:        limit,
		Cursor:       cursor,
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}
