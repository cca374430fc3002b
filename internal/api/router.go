// Package api exposes the app over HTTP.
package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"textscope/internal/app"
)

func NewRouter(a *app.App) *mux.Router {
	h := &Handlers{app: a}
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/state", h.GetState).Methods("GET")
	r.HandleFunc("/capture", h.StartCapture).Methods("POST")
	r.HandleFunc("/confirm", h.Confirm).Methods("POST")
	r.HandleFunc("/discard", h.Discard).Methods("POST")
	r.HandleFunc("/copy", h.Copy).Methods("POST")
	r.HandleFunc("/detected", h.GetDetected).Methods("GET")
	r.HandleFunc("/session", h.GetSession).Methods("GET")
	r.HandleFunc("/orientation", h.SetOrientation).Methods("PUT")
	r.HandleFunc("/layout", h.SetLayout).Methods("PUT")
	return r
}
