package capability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableRoleMatrix(t *testing.T) {
	table := DefaultTable()

	cases := []struct {
		name      string
		identity  Identity
		view      bool
		edit      bool
		authorize bool
		audit     bool
	}{
		{"anonymous", Identity{}, false, false, false, false},
		{"viewer", Identity{UserID: "u1"}, true, false, false, false},
		{"editor", Identity{UserID: "u1", Roles: []string{"editor"}}, true, true, false, false},
		{"approver", Identity{UserID: "u1", Roles: []string{"approver"}}, true, true, true, true},
		{"admin", Identity{UserID: "u1", Roles: []string{"admin"}}, true, true, true, true},
		{"mixed case", Identity{UserID: "u1", Roles: []string{"Approver"}}, true, true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.view, table.Allows(tc.identity, CapViewPayruns))
			require.Equal(t, tc.edit, table.Allows(tc.identity, CapEditPayrun))
			require.Equal(t, tc.authorize, table.Allows(tc.identity, CapAuthorizePayrun))
			require.Equal(t, tc.audit, table.Allows(tc.identity, CapViewAudit))
		})
	}
}

func TestUnknownCapabilityDenied(t *testing.T) {
	table := DefaultTable()
	admin := Identity{UserID: "u1", Roles: []string{"admin"}}
	require.False(t, table.Allows(admin, Capability("payruns.delete")))
}

func TestExtractParsesForwardedHeaders(t *testing.T) {
	merchantID := uuid.New()
	var got Identity
	mw := Middleware{Table: DefaultTable()}
	handler := mw.Extract(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "  user-1  ")
	req.Header.Set("X-Merchant-Id", merchantID.String())
	req.Header.Set("X-User-Roles", "editor, approver, ,")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, merchantID, got.MerchantID)
	require.Equal(t, []string{"editor", "approver"}, got.Roles)
}

func TestExtractIgnoresMalformedMerchantID(t *testing.T) {
	var got Identity
	mw := Middleware{Table: DefaultTable()}
	handler := mw.Extract(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "user-1")
	req.Header.Set("X-Merchant-Id", "not-a-uuid")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, uuid.Nil, got.MerchantID)
}

func TestRequireForbidsMissingCapability(t *testing.T) {
	mw := Middleware{Table: DefaultTable()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := mw.Extract(mw.Require(CapAuthorizePayrun)(next))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-User-Id", "user-1")
	req.Header.Set("X-User-Roles", "editor")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set("X-User-Roles", "approver")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
