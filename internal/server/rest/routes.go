package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleNotFound)

	r.HandleFunc("/", s.authenticated(s.handleAccount)).Methods(http.MethodGet)

	r.HandleFunc("/register", s.track("register", s.handleRegister)).Methods(http.MethodPost)
	r.HandleFunc("/register/{token}", s.track("verify", s.handleVerify)).Methods(http.MethodGet)

	r.HandleFunc("/login", s.track("login", s.handleLogin)).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.track("logout", s.authenticated(s.handleLogout))).Methods(http.MethodPost)

	r.HandleFunc("/reset", s.track("reset_request", s.handleRequestReset)).Methods(http.MethodPost)
	r.HandleFunc("/reset/{token}", s.track("reset_check", s.handleCheckReset)).Methods(http.MethodGet)
	r.HandleFunc("/reset/{token}", s.track("reset_consume", s.handleConsumeReset)).Methods(http.MethodPost)

	r.HandleFunc("/delete", s.track("delete", s.authenticated(s.handleDelete))).Methods(http.MethodPost)

	r.HandleFunc("/google", s.handleGoogle).Methods(http.MethodGet)
	r.HandleFunc("/google/redirect", s.track("federated_login", s.handleGoogleRedirect)).Methods(http.MethodGet)

	r.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	return r
}
