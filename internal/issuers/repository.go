package issuers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
	"github.com/veristamp/veristamp/pkg/query"
	"github.com/veristamp/veristamp/pkg/repository"
)

const minPasswordLength = 6

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an issuer repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "issuers"),
		pagination: pagination,
	}
}

func (r *repo) Handler(tokens *TokenIssuer, verifier middleware.TokenVerifier) *Handler {
	return NewHandler(r, tokens, verifier, r.logger, r.pagination)
}

func (r *repo) Register(ctx context.Context, cmd RegisterCommand) (*Issuer, error) {
	if err := validateRegistration(cmd); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	q := `
		INSERT INTO issuers(id, name, email, password_hash, state, district, institute_type,
			registration_id, year_of_registration, phone_number, representative_name, representative_designation,
			issuer_code, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, name, email, password_hash, state, district, institute_type,
			registration_id, year_of_registration, phone_number, representative_name, representative_designation,
			issuer_code, role, created_at, updated_at`

	issuer, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Issuer, error) {
		code, err := nextIssuerCode(ctx, tx)
		if err != nil {
			return Issuer{}, err
		}

		insertArgs := []any{
			uuid.New(),
			cmd.Name,
			strings.ToLower(cmd.Email),
			string(hash),
			cmd.State,
			cmd.District,
			cmd.InstituteType,
			cmd.RegistrationID,
			cmd.YearOfRegistration,
			cmd.PhoneNumber,
			cmd.RepresentativeName,
			cmd.RepresentativeDesignation,
			code,
			RoleIssuer,
		}

		return repository.QueryOne(ctx, tx, q, insertArgs, scanIssuer)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("issuer registered", "id", issuer.ID, "issuer_code", issuer.IssuerCode)
	return &issuer, nil
}

func (r *repo) Authenticate(ctx context.Context, email, password string) (*Issuer, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Email", strings.ToLower(email))

	issuer, err := repository.QueryOne(ctx, r.db, q, args, scanIssuer)
	if err != nil {
		if errors.Is(repository.MapError(err, ErrNotFound, ErrDuplicate), ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query issuer: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(issuer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &issuer, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Issuer, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	issuer, err := repository.QueryOne(ctx, r.db, q, args, scanIssuer)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &issuer, nil
}

func (r *repo) SearchPublic(
	ctx context.Context,
	page pagination.PageRequest,
	filters PublicFilters,
) (*pagination.PageResult[PublicView], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "District")

	filters.Apply(qb)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count issuers: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	matched, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanIssuer)
	if err != nil {
		return nil, fmt.Errorf("query issuers: %w", err)
	}

	views := make([]PublicView, 0, len(matched))
	for i := range matched {
		views = append(views, matched[i].Public())
	}

	result := pagination.NewPageResult(views, total, page.Page, page.PageSize)
	return &result, nil
}

// nextIssuerCode draws the next value from the issuer code sequence and
// formats it as ISS-<year>-<zero padded sequence>.
func nextIssuerCode(ctx context.Context, tx *sql.Tx) (string, error) {
	var n int64
	if err := tx.QueryRowContext(ctx, "SELECT nextval('issuer_code_seq')").Scan(&n); err != nil {
		return "", fmt.Errorf("next issuer code: %w", err)
	}
	return fmt.Sprintf("ISS-%d-%05d", time.Now().Year(), n), nil
}

func validateRegistration(cmd RegisterCommand) error {
	if cmd.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidRegistration)
	}
	if _, err := mail.ParseAddress(cmd.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidRegistration)
	}
	if len(cmd.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, minPasswordLength)
	}
	if cmd.RegistrationID == "" {
		return fmt.Errorf("%w: registration id required", ErrInvalidRegistration)
	}
	if cmd.YearOfRegistration <= 0 {
		return fmt.Errorf("%w: year of registration required", ErrInvalidRegistration)
	}
	if !validPhoneNumber(cmd.PhoneNumber) {
		return fmt.Errorf("%w: phone number must be 10 digits", ErrInvalidRegistration)
	}
	if cmd.RepresentativeName == "" {
		return fmt.Errorf("%w: representative name required", ErrInvalidRegistration)
	}
	if cmd.RepresentativeDesignation == "" {
		return fmt.Errorf("%w: representative designation required", ErrInvalidRegistration)
	}
	return nil
}

func validPhoneNumber(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
