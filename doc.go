// Package photozip serves directories of photos as zip archives generated on
// demand and streamed to the client while they are produced.
//
// Nothing is buffered in full: an archive producer (the external zip tool or
// the in-process native producer) writes the archive to a pipe and the
// Streamer forwards it chunk by chunk to the HTTP response.
//
// # Key Components
//
//   - ArchiveService: Resolves tokens, launches producers and records history
//   - Producer / Process: Capability interfaces over an archive producer
//   - Streamer: Pacing, chunked forwarding and cancellation handling
//   - DirectoryStore: Resolves a token to a directory under the photos root
//   - HistoryRepo: Optional record of served archives (PostgreSQL, SQLite)
//
// # Cancellation
//
// Every stream is bound to the request context. When it is cancelled the
// producer receives a termination request immediately, the streamer returns
// ctx.Err() and the HTTP layer aborts the connection instead of finishing
// the response.
//
// # Example Usage
//
//	service, err := photozip.NewArchiveService(store, producer, photozip.ServiceConfig{
//	    Producer: photozip.ProducerZip,
//	    Stream:   photozip.StreamConfig{Delay: 100 * time.Millisecond},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	archive, err := service.Open(ctx, "7d5e2a9b")
//	if err != nil {
//	    // errors.Is(err, photozip.ErrNotFound) when the directory is missing
//	}
//	stats, err := service.Stream(ctx, archive, sink)
//
// See the http package for the HTTP server and the producer package for the
// archive producers.
package photozip
