package httpserver

import (
	"net/http"
	"time"
)

// New builds the registry API server. The header read timeout bounds how long
// a client may hold a connection before sending its request line and headers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
