package bapi

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned when a write would grow the buffer beyond its limit.
var ErrBufferFull = errors.New("buffer is full")

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// ResponseBuffer is a [ResponseWriter] that holds the status, headers and body in memory until
// it is flushed to the underlying writer.
type ResponseBuffer struct {
	resp  http.ResponseWriter
	buf   *bytes.Buffer
	limit int

	header      http.Header
	sent        http.Header
	status      int
	wroteHeader bool
	wroteResp   bool
	flushed     bool
}

// NewResponseWriter buffers writes to resp. A positive limit caps the number of bytes that
// can be buffered between flushes, any other value means no limit.
func NewResponseWriter(resp http.ResponseWriter, limit int) *ResponseBuffer {
	return newBufferResponse(resp, limit)
}

func newBufferResponse(resp http.ResponseWriter, limit int) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	return &ResponseBuffer{
		resp:   resp,
		buf:    buf,
		limit:  limit,
		header: make(http.Header),
		status: http.StatusOK,
	}
}

// Header returns the headers that will be sent when the response is flushed.
func (w *ResponseBuffer) Header() http.Header { return w.header }

// WriteHeader records the status code. Like the standard library only the first call counts,
// and headers changed after it are not sent.
func (w *ResponseBuffer) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}

	w.wroteHeader = true
	w.status = statusCode
	w.sent = w.header.Clone()
}

// Write appends to the buffer.
func (w *ResponseBuffer) Write(b []byte) (int, error) {
	if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
		return 0, ErrBufferFull
	}

	w.WriteHeader(http.StatusOK)

	n, err := w.buf.Write(b)
	if err != nil {
		return n, errors.Wrap(err, "write to buffer")
	}

	return n, nil
}

// Status returns the status code the response will be sent with.
func (w *ResponseBuffer) Status() int { return w.status }

// Reset discards the buffered status, headers and body so a completely new response can be
// formulated. It panics when part of the response was already flushed explicitly.
func (w *ResponseBuffer) Reset() {
	if w.flushed {
		panic("bapi: cannot reset response, already flushed")
	}

	w.buf.Reset()
	w.header = make(http.Header)
	w.sent = nil
	w.status = http.StatusOK
	w.wroteHeader = false
}

// FlushError writes the buffered response to the underlying writer and flushes that writer
// when it supports it. It is called by [http.ResponseController.Flush].
func (w *ResponseBuffer) FlushError() error {
	if err := w.FlushBuffer(); err != nil {
		return err
	}

	w.flushed = true
	if err := http.NewResponseController(w.resp).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return errors.Wrap(err, "flush underlying response")
	}

	return nil
}

// FlushBuffer writes the status, headers and buffered body to the underlying writer.
func (w *ResponseBuffer) FlushBuffer() error {
	if !w.wroteResp {
		w.WriteHeader(http.StatusOK)

		dst := w.resp.Header()
		for k, v := range w.sent {
			dst[k] = v
		}

		w.resp.WriteHeader(w.status)
		w.wroteResp = true
	}

	if w.buf.Len() < 1 {
		return nil
	}

	if _, err := w.resp.Write(w.buf.Bytes()); err != nil {
		return errors.Wrap(err, "write buffer to underlying response")
	}

	w.buf.Reset()

	return nil
}

// Unwrap returns the underlying writer, for use by [http.ResponseController].
func (w *ResponseBuffer) Unwrap() http.ResponseWriter { return w.resp }

// Free returns the buffer to the pool. The writer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf == nil {
		return
	}

	bufPool.Put(w.buf)
	w.buf = nil
}

var _ ResponseWriter = &ResponseBuffer{}
