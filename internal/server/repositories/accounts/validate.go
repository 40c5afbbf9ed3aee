package accounts

import (
	"fmt"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
)

// Logical field names carried by common.DuplicateKeyError.
const (
	FieldEmail             = "email"
	FieldVerificationToken = "verification_token"
	FieldResetToken        = "reset_token"
	FieldExternalID        = "external_id"
)

// prepare normalizes the account before it is written and rejects records
// that would break the store's constraints.
func prepare(a *models.Account) error {
	a.Email = models.NormalizeEmail(a.Email)
	if a.Email == "" {
		return fmt.Errorf("%w: email is empty", common.ErrInvalidRecord)
	}
	if a.ResetToken != "" && a.ResetExpiresAt == nil {
		return fmt.Errorf("%w: reset token without expiry", common.ErrInvalidRecord)
	}
	if a.ResetToken == "" {
		a.ResetExpiresAt = nil
	}
	return nil
}
