package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/dbx"
	"github.com/dmitrijs2005/swengineer/internal/server/models"
)

const accountColumns = `id, email, password_hash, verified, verification_token,
		 reset_token, reset_expires_at, external_id, created_at, updated_at`

type PostgresRepository struct {
	db    dbx.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a                                models.Account
		hash, vtoken, rtoken, externalID sql.NullString
		resetExpires                     sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Email, &hash, &a.Verified, &vtoken,
		&rtoken, &resetExpires, &externalID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash.String
	a.VerificationToken = vtoken.String
	a.ResetToken = rtoken.String
	a.ExternalID = externalID.String
	if resetExpires.Valid {
		t := resetExpires.Time
		a.ResetExpiresAt = &t
	}
	return &a, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *PostgresRepository) findOne(ctx context.Context, column, value string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE ` + column + ` = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if uuid.Validate(id) != nil {
		// the column is UUID typed; anything else cannot match
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, "id", id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, "email", models.NormalizeEmail(email))
}

func (r *PostgresRepository) FindByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, "verification_token", token)
}

func (r *PostgresRepository) FindByResetToken(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, "reset_token", token)
}

func (r *PostgresRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	if externalID == "" {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, "external_id", externalID)
}

func (r *PostgresRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := prepare(account); err != nil {
		return nil, err
	}
	now := r.now()

	if account.ID == "" {
		return r.insert(ctx, account, now)
	}
	return r.update(ctx, account, now)
}

func (r *PostgresRepository) insert(ctx context.Context, a *models.Account, now time.Time) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (` + accountColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	id := r.newID()
	_, err := r.db.ExecContext(ctx, query,
		id, a.Email, nullable(a.PasswordHash), a.Verified, nullable(a.VerificationToken),
		nullable(a.ResetToken), nullableTime(a.ResetExpiresAt), nullable(a.ExternalID), now, now)
	if err != nil {
		return nil, classify(err)
	}

	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

func (r *PostgresRepository) update(ctx context.Context, a *models.Account, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET email = $2, password_hash = $3, verified = $4, verification_token = $5,
		     reset_token = $6, reset_expires_at = $7, external_id = $8, updated_at = $9
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, nullable(a.PasswordHash), a.Verified, nullable(a.VerificationToken),
		nullable(a.ResetToken), nullableTime(a.ResetExpiresAt), nullable(a.ExternalID), now)
	if err != nil {
		return nil, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}

	a.UpdatedAt = now
	return a, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.Account, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}

	query :=
		`UPDATE accounts
		 SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL, updated_at = $3
		 WHERE reset_token = $1 AND reset_expires_at > $3
		 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, token, passwordHash, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// classify maps PostgreSQL constraint failures onto store errors.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("db error: %w", err)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return common.DuplicateKeyError{Field: uniqueField(pgErr.ConstraintName)}
	case "23514": // check_violation
		return fmt.Errorf("%w: %s", common.ErrInvalidRecord, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

func uniqueField(constraint string) string {
	c := strings.ToLower(strings.TrimSpace(constraint))

	switch c {
	case "accounts_email_key":
		return FieldEmail
	case "accounts_verification_token_key":
		return FieldVerificationToken
	case "accounts_reset_token_key":
		return FieldResetToken
	case "accounts_external_id_key":
		return FieldExternalID
	}

	switch {
	case strings.Contains(c, "email"):
		return FieldEmail
	case strings.Contains(c, "verification"):
		return FieldVerificationToken
	case strings.Contains(c, "reset"):
		return FieldResetToken
	case strings.Contains(c, "external"):
		return FieldExternalID
	}
	return ""
}
