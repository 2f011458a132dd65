package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the public API. Everything under /api requires a bearer token.
func NewRouter(quizzes *QuizHandler, ws *WSHandler, auth *Authenticator) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws/notifications", ws.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware)
	api.HandleFunc("/quizzes/{quizID}/start", quizzes.Start).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{quizID}/submit", quizzes.Submit).Methods(http.MethodPost)
	api.HandleFunc("/me/points", quizzes.Points).Methods(http.MethodGet)
	api.HandleFunc("/me/certificates", quizzes.Certificates).Methods(http.MethodGet)
	return r
}
