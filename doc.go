// Package tobi implements the request protocol engine of a minimal
// HTTP/1.x static file server.
//
// The engine answers exactly one GET request per connection. Raw bytes are
// read until the blank line ending the header block, checked against a
// narrow grammar, resolved to a file under the server root, and answered
// with a complete response before the connection is closed.
//
// # Key Components
//
//   - ReadRequest: reads a connection until "\r\n\r\n"
//   - ValidateRequest: request line and header grammar, returns a StatusCode
//   - ResolvePath: request target to filesystem path under the root
//   - BuildHeader, ErrorBody, ErrorResponse: response rendering
//   - Engine: validate, resolve, fetch or fail, in one call
//   - ContentStore: file fetching (see the filesystem package)
//   - AccessLogRepo: per-connection access records (see the database package)
//
// # Status Codes
//
// Every response carries one of 200, 400, 404, 405 or 500. Any other value
// is sent as 500.
//
// # Example Usage
//
//	engine, err := tobi.NewEngine(settings, filesystem.NewStore())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := tobi.ReadRequest(ctx, conn, 64<<10)
//	if err != nil {
//	    return // drop the connection
//	}
//	_, _ = conn.Write(engine.Respond(ctx, text).Bytes())
//
// See the server package for the connection dispatcher.
package tobi
