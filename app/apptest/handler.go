package apptest

import (
	"net/http"
	"net/http/httptest"

	"github.com/advdv/bapi"
)

// CallHandler invokes a [bapi.HandlerFunc] with a buffered response writer and
// returns the recorded response. It handles the boilerplate of wrapping
// [httptest.ResponseRecorder] in a [bapi.ResponseWriter] and flushing the
// buffer afterward.
func CallHandler(handler bapi.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	w := bapi.NewResponseWriter(rec, -1)

	if err := handler(req.Context(), w, req); err != nil {
		panic("apptest: handler returned error: " + err.Error())
	}

	if err := w.FlushBuffer(); err != nil {
		panic("apptest: FlushBuffer failed: " + err.Error())
	}

	return rec
}
