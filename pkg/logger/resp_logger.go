// Package logger records what a handler sent back so middleware can log it.
package logger

import "net/http"

// ResponseLogger wraps an http.ResponseWriter and remembers the status code
// and the number of body bytes written.
type ResponseLogger struct {
	w           http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func New(w http.ResponseWriter) *ResponseLogger {
	return &ResponseLogger{w: w, status: http.StatusOK}
}

func (l *ResponseLogger) WriteHeader(code int) {
	if l.wroteHeader {
		return
	}
	l.wroteHeader = true
	l.status = code
	l.w.WriteHeader(code)
}

func (l *ResponseLogger) Write(b []byte) (int, error) {
	if !l.wroteHeader {
		l.WriteHeader(http.StatusOK)
	}
	n, err := l.w.Write(b)
	l.size += n
	return n, err
}

func (l *ResponseLogger) Header() http.Header {
	return l.w.Header()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (l *ResponseLogger) Unwrap() http.ResponseWriter {
	return l.w
}

func (l *ResponseLogger) Status() int {
	return l.status
}

// Size is the number of body bytes written so far.
func (l *ResponseLogger) Size() int {
	return l.size
}
