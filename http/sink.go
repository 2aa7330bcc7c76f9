package http

import (
	"errors"
	"net/http"
	"time"
)

// responseSink delivers archive chunks to the client, flushing each one
// so nothing is held back in the response buffer.
type responseSink struct {
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
}

func newResponseSink(w http.ResponseWriter, writeTimeout time.Duration) *responseSink {
	return &responseSink{
		w:            w,
		rc:           http.NewResponseController(w),
		writeTimeout: writeTimeout,
	}
}

func (s *responseSink) WriteChunk(chunk []byte) error {
	if s.writeTimeout > 0 {
		err := s.rc.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
	}

	if _, err := s.w.Write(chunk); err != nil {
		return err
	}

	return s.Flush()
}

func (s *responseSink) Flush() error {
	err := s.rc.Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}
