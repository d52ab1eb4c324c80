package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"autoblog-backend/internal/infrastructure/database"
	"autoblog-backend/pkg/jwt"
)

const uniqueViolation = "23505"

// PostgresProvider implements Provider over an accounts table, bcrypt
// password hashes and HS256 session tokens.
type PostgresProvider struct {
	db  *database.PostgresDB
	jwt *jwt.Manager
}

func NewPostgresProvider(db *database.PostgresDB, jwtManager *jwt.Manager) *PostgresProvider {
	return &PostgresProvider{db: db, jwt: jwtManager}
}

func (p *PostgresProvider) Authenticate(ctx context.Context, email, password string) (User, string, error) {
	var (
		u       User
		hash    string
		isAdmin bool
	)
	err := p.db.Pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, is_admin
		   FROM accounts WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &hash, &isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", fmt.Errorf("query account: %w", err)
	}

	// Constant-time comparison.
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := p.jwt.GenerateToken(u.ID.String(), u.Email, u.Name, isAdmin)
	if err != nil {
		return User{}, "", fmt.Errorf("generate token: %w", err)
	}
	return u, token, nil
}

func (p *PostgresProvider) Register(ctx context.Context, email, password, name string) (User, string, error) {
	if len(password) < 6 {
		return User{}, "", ErrWeakPassword
	}

	// bcrypt cost 12: balance between security and latency.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:    uuid.New(),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  strings.TrimSpace(name),
	}

	_, err = p.db.Pool.Exec(ctx,
		`INSERT INTO accounts (id, email, name, password_hash, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, false, $5)`,
		u.ID, u.Email, u.Name, string(hash), time.Now(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, "", ErrEmailAlreadyExists
		}
		return User{}, "", fmt.Errorf("insert account: %w", err)
	}

	token, err := p.jwt.GenerateToken(u.ID.String(), u.Email, u.Name, false)
	if err != nil {
		return User{}, "", fmt.Errorf("generate token: %w", err)
	}
	return u, token, nil
}

// SignOut validates the token so a bogus sign-out surfaces an error; the
// tokens themselves are stateless, so there is nothing to revoke server-side.
func (p *PostgresProvider) SignOut(ctx context.Context, token string) error {
	if _, err := p.jwt.ValidateToken(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

func (p *PostgresProvider) FetchClaims(ctx context.Context, token string) (Claims, error) {
	claims, err := p.jwt.ValidateToken(token)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Admin: claims.Admin}, nil
}
