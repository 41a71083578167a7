// Package client provides the `logship` command-line client.
//
// The client talks to a running server's HTTP gateway to enqueue events,
// inspect the queue and trigger drains, and to its gRPC health service.
//
// # Address configuration
//
// The HTTP base URL is supplied by the embedding application through a
// BaseURLFunc; the standalone binary reads LOGSHIP_HTTP and defaults to
// http://127.0.0.1:8080. The gRPC address is read from LOGSHIP_GRPC
// (default 127.0.0.1:9090).
//
// Usage
//
//	logship send --json '{"type":"signup","user":"u1"}'
//	echo '{"type":"click"}' | logship send --json -
//	logship capture --json '{"type":"login"}'
//
//	logship queue peek
//	logship queue stats
//	logship queue drain --state '{"token":"abc"}'
//
//	logship health
package client
