package httpapi

import (
	"net/http"
)

// NewMux returns a mux with /healthz registered; feature modules add their
// own routes.
func NewMux(store Pinger) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, store)
	return mux
}
