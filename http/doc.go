// Package http provides the admin API for a running tobi server.
//
// The admin API listens separately from the file server and speaks JSON.
// It exposes health, connection counters, the live settings, and the
// access log.
//
// # Routes
//
//	GET  /healthz          {"status":"ok"}
//	GET  /stats            connection counters
//	GET  /settings         current Host, Port and Path
//	PUT  /settings/{key}   body {"value": ...}; 400 invalid_setting when rejected
//	GET  /access           ?prefix=&limit=&cursor=; 404 access_log_disabled without a repo
//
// Errors are written as {"error": code, "message": text}.
//
// # Usage
//
//	handler, err := http.NewHandler(&http.HandlerConfig{
//	    Settings:  settings,
//	    Stats:     srv,
//	    AccessLog: repo, // nil disables /access
//	})
//	if err != nil {
//	    return err
//	}
//	admin := &nethttp.Server{Addr: "127.0.0.1:8001", Handler: handler.Router()}
//
// CORS is applied when HandlerConfig.CORS.Enabled is set.
package http
