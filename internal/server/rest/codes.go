package rest

// Response message codes. Clients match on these, so they are stable.
const (
	// success
	MsgVerificationEmailSent = "VERIFICATION_EMAIL_SENT"
	MsgVerificationSuccess   = "VERIFICATION_SUCCESS"
	MsgLoginSuccess          = "LOGIN_SUCCESS"
	MsgLogoutSuccess         = "LOGOUT_SUCCESS"
	MsgResetEmailSent        = "RESET_EMAIL_SENT"
	MsgValidToken            = "VALID_TOKEN"
	MsgResetPasswordSuccess  = "RESET_PASSWORD_SUCCESS"
	MsgUserDeleted           = "USER_DELETED"
	MsgPong                  = "PONG"

	// client errors
	MsgInvalidEmail          = "INVALID_EMAIL"
	MsgInvalidPassword       = "INVALID_PASSWORD"
	MsgInvalidPasswordLength = "INVALID_PASSWORD_LENGTH"
	MsgDuplicateUser         = "DUPLICATE_USER"
	MsgNoPassword            = "NO_PASSWORD"
	MsgUnverifiedEmail       = "UNVERIFIED_EMAIL"
	MsgTokenExpired          = "TOKEN_EXPIRED"
	MsgInvalidToken          = "INVALID_TOKEN"
	MsgInvalidUser           = "INVALID_USER"
	MsgInvalidBody           = "INVALID_BODY"
	MsgInvalidState          = "INVALID_STATE"
	MsgNotFound              = "NOT_FOUND"
	MsgFederationError       = "FEDERATION_ERROR"

	// server errors
	MsgRegisterError           = "REGISTER_ERROR"
	MsgVerificationError       = "VERIFICATION_ERROR"
	MsgLoginError              = "LOGIN_ERROR"
	MsgResetPasswordError      = "RESET_PASSWORD_ERROR"
	MsgResetPasswordTokenError = "RESET_PASSWORD_TOKEN_ERROR"
	MsgAccountDeletionError    = "ACCOUNT_DELETION_ERROR"
	MsgInternalServerError     = "INTERNAL_SERVER_ERROR"
)
