// Package capability decides what the calling dashboard user may do. The
// checks are a single declarative table of capability → predicate, consulted
// once per request, instead of role conditionals scattered through handlers.
//
// Authentication itself lives in the upstream BFF; the caller identity
// arrives on trusted headers.
package capability

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Capability names an action the dashboard user may be allowed to perform.
type Capability string

const (
	CapViewPayruns     Capability = "payruns.view"
	CapEditPayrun      Capability = "payruns.edit"
	CapAuthorizePayrun Capability = "payruns.authorize"
	CapViewAudit       Capability = "audit.view"
)

// Identity is the caller context forwarded by the BFF.
type Identity struct {
	UserID     string
	MerchantID uuid.UUID
	Roles      []string
}

// HasRole reports whether the identity carries the role.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Predicate decides one capability for one identity.
type Predicate func(Identity) bool

// Table maps capabilities to their predicates.
type Table map[Capability]Predicate

// DefaultTable encodes the dashboard's role model: admins do everything,
// approvers may authorize, editors may edit, and every authenticated user
// may view.
func DefaultTable() Table {
	admin := func(id Identity) bool { return id.HasRole("admin") }
	return Table{
		CapViewPayruns: func(id Identity) bool {
			return id.UserID != ""
		},
		CapEditPayrun: func(id Identity) bool {
			return admin(id) || id.HasRole("editor") || id.HasRole("approver")
		},
		CapAuthorizePayrun: func(id Identity) bool {
			return admin(id) || id.HasRole("approver")
		},
		CapViewAudit: func(id Identity) bool {
			return admin(id) || id.HasRole("approver")
		},
	}
}

// Allows evaluates one capability. Unknown capabilities are denied.
func (t Table) Allows(id Identity, c Capability) bool {
	pred, ok := t[c]
	if !ok {
		return false
	}
	return pred(id)
}

type contextKey struct{}

// ContextWithIdentity stores the identity on the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext retrieves the identity, zero when absent.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}

// Middleware extracts the forwarded identity and enforces capabilities.
type Middleware struct {
	Table Table
}

// Extract parses the identity headers and stores the identity on the
// request context.
func (m Middleware) Extract(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{UserID: strings.TrimSpace(r.Header.Get("X-User-Id"))}
		if raw := r.Header.Get("X-Merchant-Id"); raw != "" {
			if parsed, err := uuid.Parse(raw); err == nil {
				id.MerchantID = parsed
			}
		}
		if raw := r.Header.Get("X-User-Roles"); raw != "" {
			for _, role := range strings.Split(raw, ",") {
				if role = strings.TrimSpace(role); role != "" {
					id.Roles = append(id.Roles, role)
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	})
}

// Require denies the request unless the identity holds the capability.
func (m Middleware) Require(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if !m.Table.Allows(id, c) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
