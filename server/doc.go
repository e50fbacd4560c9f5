// Package server accepts TCP connections and answers one request per
// connection.
//
// Each accepted connection runs in its own goroutine: the request head is
// read, handed to a Responder, the response is written in a single write,
// and the connection is closed. A connection whose request cannot be read
// is closed without a response. The number of connections served at once
// is bounded by a weighted semaphore; when it is full the accept loop waits.
//
// # Usage
//
//	srv, err := server.New(engine, server.Config{MaxConnections: 256},
//	    server.WithAccessLog(repo),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ln, err := net.Listen("tcp", "127.0.0.1:8000")
//	if err != nil {
//	    return err
//	}
//	return srv.Serve(ctx, ln)
package server
