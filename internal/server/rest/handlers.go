package rest

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/swengineer/internal/server/auth"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
	"github.com/dmitrijs2005/swengineer/internal/server/oauth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Verify   bool   `json:"verify"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type newPasswordRequest struct {
	Password string `json:"password"`
}

type accountResponse struct {
	Account models.PublicAccount `json:"account"`
}

// fail answers with the client error err maps to, or with serverCode
// and a logged 500 when err is not a client error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, table []clientError, err error, serverCode string) {
	if ce, ok := lookup(table, err); ok {
		s.logger.Debug(r.Context(), "request rejected", "code", ce.code, "reason", err.Error())
		writeMessage(w, ce.status, ce.code)
		return
	}
	s.logger.Error(r.Context(), "request failed", "code", serverCode, "error", err)
	writeMessage(w, http.StatusInternalServerError, serverCode)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, flowErrors, err, MsgRegisterError)
		return
	}

	if _, err := s.accounts.Register(r.Context(), req.Email, req.Password, req.Verify); err != nil {
		s.fail(w, r, flowErrors, err, MsgRegisterError)
		return
	}
	// a resend creates nothing
	status := http.StatusCreated
	if req.Verify {
		status = http.StatusOK
	}
	writeMessage(w, status, MsgVerificationEmailSent)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if _, err := s.accounts.ConfirmVerification(r.Context(), mux.Vars(r)["token"]); err != nil {
		s.fail(w, r, flowErrors, err, MsgVerificationError)
		return
	}
	writeMessage(w, http.StatusOK, MsgVerificationSuccess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, flowErrors, err, MsgLoginError)
		return
	}

	sess, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, flowErrors, err, MsgLoginError)
		return
	}

	s.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeMessage(w, http.StatusOK, MsgLoginSuccess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, MsgLogoutSuccess)
}

func (s *Server) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, flowErrors, err, MsgResetPasswordError)
		return
	}

	if err := s.accounts.RequestReset(r.Context(), req.Email, clientIP(r)); err != nil {
		s.fail(w, r, flowErrors, err, MsgResetPasswordError)
		return
	}
	writeMessage(w, http.StatusOK, MsgResetEmailSent)
}

func (s *Server) handleCheckReset(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.CheckResetToken(r.Context(), mux.Vars(r)["token"]); err != nil {
		s.fail(w, r, flowErrors, err, MsgResetPasswordTokenError)
		return
	}
	writeMessage(w, http.StatusOK, MsgValidToken)
}

func (s *Server) handleConsumeReset(w http.ResponseWriter, r *http.Request) {
	var req newPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, flowErrors, err, MsgResetPasswordTokenError)
		return
	}

	if err := s.accounts.ConsumeReset(r.Context(), mux.Vars(r)["token"], req.Password); err != nil {
		s.fail(w, r, flowErrors, err, MsgResetPasswordTokenError)
		return
	}
	writeMessage(w, http.StatusOK, MsgResetPasswordSuccess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	account, _ := auth.AccountFromContext(r.Context())

	if err := s.accounts.Delete(r.Context(), account.ID); err != nil {
		s.fail(w, r, flowErrors, err, MsgAccountDeletionError)
		return
	}

	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, MsgUserDeleted)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, _ := auth.AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, accountResponse{Account: account.Public()})
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.handleNotFound(w, r)
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		s.fail(w, r, nil, err, MsgInternalServerError)
		return
	}

	s.setFlowCookie(w, stateCookieName, state)
	s.setFlowCookie(w, redirectCookieName, url.QueryEscape(oauth.SafeRedirect(r.URL.Query().Get("redirect"))))

	http.Redirect(w, r, s.google.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.handleNotFound(w, r)
		return
	}

	q := r.URL.Query()
	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(q.Get("state"))) != 1 {
		s.logger.Warn(r.Context(), "oauth state mismatch", "remote", remoteAddr(r))
		writeMessage(w, http.StatusBadRequest, MsgInvalidState)
		return
	}

	redirect := "/"
	if rc, err := r.Cookie(redirectCookieName); err == nil {
		if v, err := url.QueryUnescape(rc.Value); err == nil {
			redirect = oauth.SafeRedirect(v)
		}
	}
	s.clearCookie(w, stateCookieName, stateCookiePath)
	s.clearCookie(w, redirectCookieName, stateCookiePath)

	if reason := q.Get("error"); reason != "" {
		s.logger.Warn(r.Context(), "provider denied sign-in", "reason", reason)
		writeMessage(w, http.StatusBadGateway, MsgFederationError)
		return
	}

	id, err := s.google.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		s.fail(w, r, federationErrors, err, MsgLoginError)
		return
	}

	sess, err := s.accounts.FederatedLogin(r.Context(), id)
	if err != nil {
		s.fail(w, r, federationErrors, err, MsgLoginError)
		return
	}

	s.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, MsgPong)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "store unreachable", "error", err)
		writeText(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeText(w, http.StatusOK, "ready")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, MsgNotFound)
}
