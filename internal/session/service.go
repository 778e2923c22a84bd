package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/gateway"
	"github.com/noah-isme/travel-backoffice/internal/numfmt"
	"github.com/noah-isme/travel-backoffice/internal/obs"
	"github.com/noah-isme/travel-backoffice/internal/pricing"
)

// RecordSource loads persisted records to hydrate sessions from.
type RecordSource interface {
	FetchSale(ctx context.Context, kind gateway.Kind, id string) (gateway.SaleRecord, error)
	FetchDeposit(ctx context.Context, id string) (gateway.DepositRecord, error)
	Invalidate(ctx context.Context, kind gateway.Kind, id string) error
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Store       Store
	Records     RecordSource
	StandardVAT float64
	Logger      zerolog.Logger
}

// Service implements the pricing session lifecycle: open, edit, reset and close.
type Service struct {
	store       Store
	records     RecordSource
	standardVAT float64
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService constructs a Service. StandardVAT is used as given, so a
// configured 0 opens air ticket and deposit forms without VAT.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:       cfg.Store,
		records:     cfg.Records,
		standardVAT: cfg.StandardVAT,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// OpenInput describes a session to open. When RecordID is set the session is
// hydrated from the gateway and VATPercent is ignored. Refresh skips any
// cached copy of the record.
type OpenInput struct {
	Kind       gateway.Kind
	RecordID   string
	VATPercent *string
	Refresh    bool
}

// LineEdit is one field edit of a passenger line.
type LineEdit struct {
	Category pricing.Category
	Field    pricing.Field
	Value    string
	Total    *float64
}

// Open creates a session with kind defaults or from a persisted record.
func (s *Service) Open(ctx context.Context, in OpenInput) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Kind:      in.Kind,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if operator, ok := common.Operator(ctx); ok {
		sess.Operator = operator
	}

	if id := strings.TrimSpace(in.RecordID); id != "" {
		if err := s.hydrate(ctx, sess, id, in.Refresh); err != nil {
			return nil, err
		}
	} else {
		vat := KindDefaults(in.Kind, s.standardVAT)
		sess.VATInput = numfmt.FormatFloat(vat)
		if in.VATPercent != nil {
			sess.VATInput = *in.VATPercent
			vat = numfmt.ToFloat(*in.VATPercent)
		}
		sess.State = pricing.NewState(vat)
		sess.Tracker = pricing.NewVATTracker(nil, nil)
	}

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	obs.ObserveSessionOpened(string(sess.Kind))
	obs.Logger(ctx, s.logger).Info().
		Str("session_id", sess.ID).
		Str("kind", string(sess.Kind)).
		Str("record_id", sess.RecordID).
		Msg("session_opened")
	return sess, nil
}

func (s *Service) hydrate(ctx context.Context, sess *Session, id string, refresh bool) error {
	if s.records == nil {
		return fmt.Errorf("%w: no record source configured", gateway.ErrUnavailable)
	}
	if refresh {
		if err := s.records.Invalidate(ctx, sess.Kind, id); err != nil {
			obs.Logger(ctx, s.logger).Warn().Err(err).Str("record_id", id).Msg("record_cache_invalidate_failed")
		}
	}
	var rec gateway.SaleRecord
	if sess.IsDeposit() {
		dep, err := s.records.FetchDeposit(ctx, id)
		if err != nil {
			return err
		}
		rec = dep.SaleRecord
		sess.Installments = dep.InstallmentSlots()
		status := dep.StatusRecord()
		sess.Deposit = &status
	} else {
		sale, err := s.records.FetchSale(ctx, sess.Kind, id)
		if err != nil {
			return err
		}
		rec = sale
	}

	sess.RecordID = id
	sess.State = rec.State(KindDefaults(sess.Kind, s.standardVAT))
	sess.VATInput = numfmt.FormatFloat(sess.State.VATPercent())
	sess.Tracker = pricing.NewVATTracker(rec.PersistedTotals())
	sess.Extras = rec.Extras
	gates := rec.Workflow()
	sess.Record = &gates
	return nil
}

// Get returns the current copy of a session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// UpdateLine applies one passenger line edit.
func (s *Service) UpdateLine(ctx context.Context, id string, edit LineEdit) (*Session, error) {
	return s.mutate(ctx, id, "update_line", func(sess *Session) error {
		sess.State = sess.State.Update(edit.Category, edit.Field, edit.Value, edit.Total)
		return nil
	})
}

// SetVAT applies the VAT percent exactly as typed. The first edit that changes
// the percent makes the session stop showing the persisted grand total.
func (s *Service) SetVAT(ctx context.Context, id, input string) (*Session, error) {
	return s.mutate(ctx, id, "set_vat", func(sess *Session) error {
		sess.VATInput = input
		sess.State = sess.State.WithVATPercent(numfmt.ToFloat(input))
		sess.Tracker = sess.Tracker.Edit(input)
		return nil
	})
}

// SetExtras replaces the ancillary items of a session.
func (s *Service) SetExtras(ctx context.Context, id string, extras []pricing.Extra) (*Session, error) {
	return s.mutate(ctx, id, "set_extras", func(sess *Session) error {
		sess.Extras = append([]pricing.Extra(nil), extras...)
		return nil
	})
}

// SetInstallment replaces installment n, counted from 1.
func (s *Service) SetInstallment(ctx context.Context, id string, n int, inst pricing.Installment) (*Session, error) {
	if n < 1 || n > pricing.InstallmentCount {
		return nil, fmt.Errorf("%w: %d", ErrInstallmentSlot, n)
	}
	return s.mutate(ctx, id, "set_installment", func(sess *Session) error {
		if !sess.IsDeposit() {
			return fmt.Errorf("%w: session kind is %s", ErrNotDeposit, sess.Kind)
		}
		sess.Installments[n-1] = inst
		return nil
	})
}

// Reset clears the form and puts VAT back to pricing.DefaultVATPercent,
// whatever the session kind. The link to the hydrated record and its
// workflow fields are kept; its totals are not.
func (s *Service) Reset(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, "reset", func(sess *Session) error {
		sess.State = sess.State.Reset()
		sess.VATInput = numfmt.FormatFloat(sess.State.VATPercent())
		sess.Tracker = pricing.NewVATTracker(nil, nil)
		sess.Extras = nil
		sess.Installments = [pricing.InstallmentCount]pricing.Installment{}
		return nil
	})
}

// Close discards a session.
func (s *Service) Close(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	obs.Logger(ctx, s.logger).Info().Str("session_id", id).Msg("session_closed")
	return nil
}

func (s *Service) mutate(ctx context.Context, id, op string, fn func(*Session) error) (*Session, error) {
	kind := "unknown"
	out, err := s.store.Mutate(ctx, id, func(sess *Session) error {
		kind = string(sess.Kind)
		if err := fn(sess); err != nil {
			return err
		}
		sess.Version++
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
	obs.ObserveSessionMutation(kind, op, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}
