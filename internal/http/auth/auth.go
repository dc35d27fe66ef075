package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/http/respond"
	"github.com/MrJamesThe3rd/comanda/internal/policy"
	"github.com/MrJamesThe3rd/comanda/internal/staff"
)

const tokenHeader = "X-Auth-Token"

// Resolver looks up the staff member a token was issued to.
type Resolver interface {
	ResolveActive(ctx context.Context, id uuid.UUID) (*staff.Staff, error)
}

type Authenticator struct {
	secret []byte
	ttl    time.Duration
	staff  Resolver
}

func New(secret string, ttl time.Duration, staff Resolver) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, staff: staff}
}

// Sign issues a token for a staff member. Roles are never embedded; they are
// read from the staff record on every request.
func (a *Authenticator) Sign(staffID uuid.UUID) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   staffID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

func (a *Authenticator) parse(raw string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}

	return id, nil
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return r.Header.Get(tokenHeader)
}

// Middleware resolves the caller from the request token and stores it in the
// request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFrom(r)
		if raw == "" {
			respond.Unauthorized(w, "missing token")
			return
		}

		id, err := a.parse(raw)
		if err != nil {
			respond.Unauthorized(w, "invalid token")
			return
		}

		st, err := a.staff.ResolveActive(r.Context(), id)
		if err != nil {
			switch {
			case apperr.Is(err, apperr.Unavailable):
				respond.Error(w, r, err)
			case errors.Is(err, staff.ErrNotFound), errors.Is(err, staff.ErrInactive):
				respond.Unauthorized(w, apperr.Message(err))
			default:
				slog.Error("failed to resolve staff", "staff", id, "error", err)
				respond.Unauthorized(w, "invalid token")
			}

			return
		}

		next.ServeHTTP(w, r.WithContext(WithStaff(r.Context(), st)))
	})
}

type ctxKey struct{}

func WithStaff(ctx context.Context, st *staff.Staff) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// StaffFrom returns the authenticated caller, or nil outside an
// authenticated request.
func StaffFrom(ctx context.Context) *staff.Staff {
	st, _ := ctx.Value(ctxKey{}).(*staff.Staff)
	return st
}

// StaffID returns the caller's id for attribution fields.
func StaffID(ctx context.Context) *uuid.UUID {
	st := StaffFrom(ctx)
	if st == nil {
		return nil
	}

	return &st.ID
}

// Guard enforces a Policy against the authenticated caller.
type Guard struct {
	policy policy.Policy
}

func NewGuard(p policy.Policy) *Guard {
	return &Guard{policy: p}
}

func (g *Guard) Require(resource policy.Resource, action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := StaffFrom(r.Context())
			if st == nil {
				respond.Unauthorized(w, "missing token")
				return
			}

			if !g.policy.Allowed(st.Role, resource, action) {
				respond.Forbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
