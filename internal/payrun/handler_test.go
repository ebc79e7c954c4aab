package payrun

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/paydesk-hq/paydesk/internal/capability"
)

type handlerFixture struct {
	server   *httptest.Server
	svc      *Service
	api      *fakeAPI
	dispatch *fakeDispatcher
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	api := &fakeAPI{payrun: testPayrun(), accounts: testAccounts()}
	dispatch := &fakeDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(api, NewMemorySessionStore(), dispatch, testComposer(), logger)

	caps := capability.Middleware{Table: capability.DefaultTable()}
	r := chi.NewRouter()
	r.Use(caps.Extract)
	NewHandler(logger, svc).MountRoutes(r, caps)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &handlerFixture{server: server, svc: svc, api: api, dispatch: dispatch}
}

func (f *handlerFixture) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "user-1")
	req.Header.Set("X-Merchant-Id", f.api.payrun.MerchantID.String())
	if role != "" {
		req.Header.Set("X-User-Roles", role)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *handlerFixture) openSession(t *testing.T) *Session {
	t.Helper()
	sess, err := f.svc.OpenSession(context.Background(), f.api.payrun.MerchantID, f.api.payrun.ID)
	require.NoError(t, err)
	return sess
}

func decodeView(t *testing.T, resp *http.Response) SessionView {
	t.Helper()
	var view SessionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func TestHandlerOpenSession(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.do(t, http.MethodPost, "/payruns/"+f.api.payrun.ID.String()+"/sessions", "editor",
		map[string]string{"merchantId": f.api.payrun.MerchantID.String()})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	view := decodeView(t, resp)
	require.Len(t, view.Currencies, 2)
	require.False(t, view.HasChanges)
}

func TestHandlerRequiresCapability(t *testing.T) {
	f := newHandlerFixture(t)
	sess := f.openSession(t)

	// A viewer can read but not edit.
	resp := f.do(t, http.MethodGet, "/sessions/"+sess.ID.String(), "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/sessions/"+sess.ID.String()+"/discard", "viewer", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// An editor cannot authorize.
	resp = f.do(t, http.MethodPost, "/sessions/"+sess.ID.String()+"/authorize", "editor",
		map[string]string{"paymentDate": "2026-09-02"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandlerToggleInvoice(t *testing.T) {
	f := newHandlerFixture(t)
	sess := f.openSession(t)
	target := line(sess, CurrencyEUR, "Acme Ltd", 0)

	enabled := false
	resp := f.do(t, http.MethodPost, "/sessions/"+sess.ID.String()+"/toggle-invoice", "editor", map[string]any{
		"currency":  "EUR",
		"contact":   "Acme Ltd",
		"invoiceId": target.ID.String(),
		"enabled":   &enabled,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, resp)
	require.True(t, view.HasChanges)
}

func TestHandlerValidatesPayload(t *testing.T) {
	f := newHandlerFixture(t)
	sess := f.openSession(t)

	resp := f.do(t, http.MethodPost, "/sessions/"+sess.ID.String()+"/toggle-invoice", "editor",
		map[string]any{"currency": "EUR"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerUnknownSessionIs404(t *testing.T) {
	f := newHandlerFixture(t)
	resp := f.do(t, http.MethodGet, "/sessions/6b9f0891-9f6b-4cde-9f3c-0d6a2f1c7e55", "viewer", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerAuthorizeFlow(t *testing.T) {
	f := newHandlerFixture(t)
	sess := f.openSession(t)
	ctx := context.Background()

	_, err := f.svc.SelectAccount(ctx, sess.ID, CurrencyEUR, f.api.accounts[1].ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleContact(ctx, sess.ID, CurrencyGBP, "Beta Co", false)
	require.NoError(t, err)

	// Unsaved edits block authorization.
	resp := f.do(t, http.MethodPost, "/sessions/"+sess.ID.String()+"/authorize", "approver",
		map[string]string{"paymentDate": composeNow.AddDate(0, 0, 5).Format("2006-01-02")})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, _, err = f.svc.Save(ctx, sess.ID, "user-1")
	require.NoError(t, err)

	resp = f.do(t, http.MethodPost, "/sessions/"+sess.ID.String()+"/authorize", "approver",
		map[string]string{"paymentDate": composeNow.AddDate(0, 0, 5).Format("2006-01-02")})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, f.dispatch.authorizations, 1)
}

func TestHandlerLeaveCheck(t *testing.T) {
	f := newHandlerFixture(t)
	sess := f.openSession(t)

	resp := f.do(t, http.MethodGet, "/sessions/"+sess.ID.String()+"/leave-check", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out["canLeave"])
}
