// Package tokens issues the random one-time tokens used for email
// verification and password reset.
package tokens

import (
	"time"

	"github.com/dmitrijs2005/swengineer/internal/common"
)

const (
	DefaultSize     = 32
	DefaultResetTTL = time.Hour
)

type Issuer struct {
	size     int
	resetTTL time.Duration
	now      func() time.Time
}

// NewIssuer returns an Issuer producing size random bytes per token, hex
// encoded. Sizes below common.MinTokenSize are raised to it; a non-positive
// resetTTL selects DefaultResetTTL.
func NewIssuer(size int, resetTTL time.Duration) *Issuer {
	if size <= 0 {
		size = DefaultSize
	}
	if size < common.MinTokenSize {
		size = common.MinTokenSize
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &Issuer{size: size, resetTTL: resetTTL, now: time.Now}
}

func (i *Issuer) NewVerificationToken() (string, error) {
	return common.MakeRandHexString(i.size)
}

// NewResetToken returns a token and the instant it stops being valid.
func (i *Issuer) NewResetToken() (string, time.Time, error) {
	tok, err := common.MakeRandHexString(i.size)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, i.now().UTC().Add(i.resetTTL), nil
}
