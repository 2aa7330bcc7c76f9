// Package producer implements photozip.Producer.
//
// ZipProducer runs the external zip tool (zip -jr - <dir>) and exposes its
// standard output as the archive stream. NativeProducer builds the same
// junk-paths archive in-process with archive/zip, reading files through the
// filesystem.Store sandbox; it needs no external binary.
//
// Both producers start immediately and never wait for the archive to be
// finished. Terminate only requests termination; Wait reaps the producer.
package producer
