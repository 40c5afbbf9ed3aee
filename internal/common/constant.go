// Package common contains shared constants and sentinel errors used across
// swengineer components.
package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// MinTokenSize is the smallest accepted random token size, in bytes.
const MinTokenSize = 16
