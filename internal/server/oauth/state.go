package oauth

import (
	"net/url"
	"strings"

	"github.com/dmitrijs2005/swengineer/internal/common"
)

const stateSize = 16

// NewState returns an unguessable value binding the callback to the browser
// that started the flow.
func NewState() (string, error) {
	return common.MakeRandHexString(stateSize)
}

// SafeRedirect returns target when it is a same-origin relative path and
// "/" otherwise.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return "/"
	}
	// "//host" and "/\host" are treated as absolute by browsers
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return target
}
