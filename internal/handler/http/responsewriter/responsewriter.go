// Package responsewriter records the status and size of a response for
// access logs and metrics.
package responsewriter

import (
	"net/http"
)

// Recorder wraps an http.ResponseWriter. A handler that never calls
// WriteHeader is recorded as 200.
type Recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func Wrap(w http.ResponseWriter) *Recorder {
	if rec, ok := w.(*Recorder); ok {
		return rec
	}
	return &Recorder{ResponseWriter: w}
}

func (w *Recorder) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *Recorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// StatusCode is the status sent, or 200 if nothing was written.
func (w *Recorder) StatusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *Recorder) BytesWritten() int {
	return w.bytes
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *Recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
