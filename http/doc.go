// Package http serves photo directories as streamed zip archives.
//
// # Routes
//
//   - GET /                          the index page, loaded once at startup
//   - GET /archive/{archive_hash}/   the directory streamed as <archive_hash>.zip
//   - GET /history                   recent archive requests as JSON (when enabled)
//
// # Archive Responses
//
// Before any body byte is sent, errors are answered with a plain text body:
// 404 with the missing directory's reason, 400 for a malformed name and 500
// when the producer could not be started.
//
// Once the 200 headers are committed the handler relays producer chunks,
// flushing after each one. The response always carries "Connection: close".
// When the client goes away or the stream fails midway the handler panics
// with http.ErrAbortHandler, which makes net/http drop the connection
// instead of terminating the body cleanly.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    IndexPage:         indexHTML,
//	    ChunkWriteTimeout: 30 * time.Second,
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// The service parameter must implement the Service interface with Open,
// Stream and History methods; *photozip.ArchiveService does.
package http
