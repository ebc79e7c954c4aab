package payrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/paydesk-hq/paydesk/internal/audit"
)

// ErrUnsavedChanges gates authorization: a request may only be composed from
// a saved selection state.
var ErrUnsavedChanges = errors.New("payrun: unsaved changes present")

// API is the slice of the payments API the service consumes.
type API interface {
	GetPayrun(ctx context.Context, payrunID uuid.UUID) (Payrun, error)
	ListPayruns(ctx context.Context, merchantID uuid.UUID, page, size int) (Page, error)
	ListAccounts(ctx context.Context, merchantID uuid.UUID) ([]Account, error)
	RenamePayrun(ctx context.Context, payrunID uuid.UUID, name string) error
}

// AuthorizationDispatch carries a composed request to the background
// submitter.
type AuthorizationDispatch struct {
	Request    AuthorizationRequest
	MerchantID uuid.UUID
	Actor      string
	EntryKey   uuid.UUID
}

// Dispatcher hands work to the background queue.
type Dispatcher interface {
	DispatchAuthorization(ctx context.Context, d AuthorizationDispatch) error
	DispatchAudit(ctx context.Context, entry audit.Entry) error
}

// Service orchestrates payrun edit sessions: loading them from the payments
// API, applying user events, tracking unsaved changes and handing composed
// authorization requests to the background submitter.
// SessionGauge counts live edit sessions for observability. A nil gauge is
// a no-op.
type SessionGauge interface {
	SessionOpened()
	SessionClosed()
}

type Service struct {
	api      API
	store    SessionStore
	dispatch Dispatcher
	composer Composer
	logger   *slog.Logger
	gauge    SessionGauge
}

// NewService constructs the service.
func NewService(api API, store SessionStore, dispatch Dispatcher, composer Composer, logger *slog.Logger) *Service {
	return &Service{api: api, store: store, dispatch: dispatch, composer: composer, logger: logger}
}

// SetSessionGauge attaches the live-session gauge.
func (s *Service) SetSessionGauge(g SessionGauge) {
	s.gauge = g
}

// ListPayruns returns one page of the merchant's payruns for the dashboard.
func (s *Service) ListPayruns(ctx context.Context, merchantID uuid.UUID, page, size int) (Page, error) {
	return s.api.ListPayruns(ctx, merchantID, page, size)
}

// OpenSession loads the payrun and the merchant's accounts concurrently and
// derives a fresh edit session from them.
func (s *Service) OpenSession(ctx context.Context, merchantID, payrunID uuid.UUID) (*Session, error) {
	var (
		p        Payrun
		accounts []Account
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.api.GetPayrun(gctx, payrunID)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.api.ListAccounts(gctx, merchantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("payrun: open session: %w", err)
	}

	sess := NewSession(p, accounts, time.Now())
	if len(sess.Working.Excluded) > 0 {
		s.logger.Warn("payrun contains malformed invoices",
			slog.String("payrun", payrunID.String()),
			slog.Int("excluded", len(sess.Working.Excluded)))
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	if s.gauge != nil {
		s.gauge.SessionOpened()
	}
	return sess, nil
}

// GetSession loads a live session.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.store.Get(ctx, id)
}

// CloseSession drops a session, discarding any uncommitted working state.
func (s *Service) CloseSession(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.gauge != nil {
		s.gauge.SessionClosed()
	}
	return nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ToggleInvoice flips one invoice's inclusion in the working state.
func (s *Service) ToggleInvoice(ctx context.Context, id uuid.UUID, c Currency, contact string, invoiceID uuid.UUID, enabled bool) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.ToggleInvoice(c, contact, invoiceID, enabled)
	})
}

// ToggleContact flips a whole contact group in the working state.
func (s *Service) ToggleContact(ctx context.Context, id uuid.UUID, c Currency, contact string, enabled bool) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.ToggleContact(c, contact, enabled)
	})
}

// SelectAccount chooses the disbursement account for one currency.
func (s *Service) SelectAccount(ctx context.Context, id uuid.UUID, c Currency, accountID uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.SelectAccount(c, accountID)
	})
}

// OverrideAmount lowers the amount to pay for one invoice.
func (s *Service) OverrideAmount(ctx context.Context, id uuid.UUID, c Currency, contact string, invoiceID uuid.UUID, amount decimal.Decimal) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.OverrideAmount(c, contact, invoiceID, amount)
	})
}

// SetExpanded records a contact group's UI expansion state.
func (s *Service) SetExpanded(ctx context.Context, id uuid.UUID, c Currency, contact string, open bool) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		return sess.SetExpanded(c, contact, open)
	})
}

// Save commits the working state as the new baseline and records the change
// set to the audit trail.
func (s *Service) Save(ctx context.Context, id uuid.UUID, actor string) (*Session, ChangeSet, error) {
	var cs ChangeSet
	sess, err := s.mutate(ctx, id, func(sess *Session) error {
		cs = sess.Save()
		return nil
	})
	if err != nil {
		return nil, ChangeSet{}, err
	}
	if !cs.Empty() {
		entry := audit.Entry{
			MerchantID: sess.MerchantID,
			PayrunID:   sess.PayrunID,
			Actor:      actor,
			Action:     audit.ActionSave,
			Meta:       map[string]any{"changes": cs},
		}
		if err := s.dispatch.DispatchAudit(ctx, entry); err != nil {
			s.logger.Warn("dispatch save audit", slog.Any("error", err))
		}
	}
	return sess, cs, nil
}

// Discard resets the working state to the saved baseline.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Discard()
		return nil
	})
}

// Rename updates the payrun name in the session, persists it through the
// payments API and records the rename.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, name, actor string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := sess.Name
	if err := s.api.RenamePayrun(ctx, sess.PayrunID, name); err != nil {
		return nil, fmt.Errorf("payrun: rename: %w", err)
	}
	sess.Rename(name)
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	entry := audit.Entry{
		MerchantID: sess.MerchantID,
		PayrunID:   sess.PayrunID,
		Actor:      actor,
		Action:     audit.ActionRename,
		Meta:       map[string]any{"from": previous, "to": name},
	}
	if err := s.dispatch.DispatchAudit(ctx, entry); err != nil {
		s.logger.Warn("dispatch rename audit", slog.Any("error", err))
	}
	return sess, nil
}

// Authorize composes an authorization request from the saved working state
// and hands it to the background submitter. Unsaved changes block
// authorization, as do the composer's validation preconditions.
func (s *Service) Authorize(ctx context.Context, id uuid.UUID, paymentDate time.Time, notes, actor string) (AuthorizationRequest, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return AuthorizationRequest{}, err
	}
	if sess.HasUnsavedChanges() {
		return AuthorizationRequest{}, ErrUnsavedChanges
	}
	req, err := s.composer.Compose(sess.PayrunID, sess.Working, sess.Projection(), paymentDate, notes)
	if err != nil {
		return AuthorizationRequest{}, err
	}
	dispatch := AuthorizationDispatch{
		Request:    req,
		MerchantID: sess.MerchantID,
		Actor:      actor,
		EntryKey:   uuid.New(),
	}
	if err := s.dispatch.DispatchAuthorization(ctx, dispatch); err != nil {
		return AuthorizationRequest{}, fmt.Errorf("payrun: dispatch authorization: %w", err)
	}
	return req, nil
}

// CanLeave reports whether the session may be left without losing edits.
func (s *Service) CanLeave(ctx context.Context, id uuid.UUID) (bool, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return sess.CanLeave(), nil
}
