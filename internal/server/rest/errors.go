package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/oauth"
)

type clientError struct {
	err    error
	status int
	code   string
}

// flowErrors maps the errors returned by account flows to responses.
// Errors not listed are server errors.
var flowErrors = []clientError{
	{common.ErrInvalidEmail, http.StatusBadRequest, MsgInvalidEmail},
	{common.ErrInvalidPassword, http.StatusBadRequest, MsgInvalidPassword},
	{common.ErrInvalidPasswordLength, http.StatusBadRequest, MsgInvalidPasswordLength},
	{common.ErrDuplicateAccount, http.StatusConflict, MsgDuplicateUser},
	{common.ErrAccountNotFound, http.StatusNotFound, MsgInvalidEmail},
	{common.ErrNoPassword, http.StatusForbidden, MsgNoPassword},
	{common.ErrInvalidCredential, http.StatusUnauthorized, MsgInvalidPassword},
	{common.ErrUnverified, http.StatusForbidden, MsgUnverifiedEmail},
	{common.ErrTokenExpired, http.StatusGone, MsgTokenExpired},
	{common.ErrorNotFound, http.StatusNotFound, MsgNotFound},
	{errInvalidBody, http.StatusBadRequest, MsgInvalidBody},
}

// sessionErrors maps Authenticator failures.
var sessionErrors = []clientError{
	{common.ErrMissingToken, http.StatusUnauthorized, MsgInvalidToken},
	{common.ErrInvalidToken, http.StatusUnauthorized, MsgInvalidToken},
	{common.ErrTokenExpired, http.StatusUnauthorized, MsgTokenExpired},
	{common.ErrInvalidPrincipal, http.StatusForbidden, MsgInvalidUser},
}

// federationErrors maps failures of the provider callback.
var federationErrors = []clientError{
	{common.ErrDuplicateAccount, http.StatusForbidden, MsgDuplicateUser},
	{oauth.ErrProvider, http.StatusBadGateway, MsgFederationError},
	{common.ErrInvalidEmail, http.StatusBadGateway, MsgFederationError},
	{common.ErrInvalidPrincipal, http.StatusBadGateway, MsgFederationError},
}

func lookup(table []clientError, err error) (clientError, bool) {
	for _, ce := range table {
		if errors.Is(err, ce.err) {
			return ce, true
		}
	}
	return clientError{}, false
}
