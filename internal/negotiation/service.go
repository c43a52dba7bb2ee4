package negotiation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
)

// Customer-facing quotes carry a standard markup over the agreed vendor
// price.
var quoteMarkupFactor = decimal.NewFromFloat(1.2)

// A deadline within this many days counts as urgent.
const urgentDeadlineDays = 2

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rulesProvider interface {
	Engine() rules.Engine
}

// Service coordinates concurrent negotiation sessions per order: rounds,
// deadlines, escalation, quote comparison, and conclusion.
type Service interface {
	StartNegotiation(ctx context.Context, input StartInput) (*models.NegotiationSession, error)
	ProposeTerms(ctx context.Context, input ProposeInput) (*models.NegotiationSession, error)
	ConcludeNegotiation(ctx context.Context, input ConcludeInput) (*models.NegotiationSession, error)
	RejectNegotiation(ctx context.Context, input RejectInput) (*models.NegotiationSession, error)
	ListForOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.NegotiationSession, error)
	SetNegotiationDeadline(ctx context.Context, tenantID, sessionID uuid.UUID, daysFromNow int) (*DeadlineResult, error)
	EscalateNegotiation(ctx context.Context, input EscalateInput) (*models.NegotiationSession, error)
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	rules  rulesProvider
	now    func() time.Time
}

// StartInput seeds a new session for one (order, vendor) pairing.
type StartInput struct {
	TenantID        uuid.UUID
	OrderID         uuid.UUID
	VendorID        uuid.UUID
	InitialPrice    decimal.Decimal
	InitialLeadDays int
	ActorID         uuid.UUID
	ActorRole       string
}

// ProposeInput is one counter-offer round.
type ProposeInput struct {
	TenantID     uuid.UUID
	SessionID    uuid.UUID
	Price        decimal.Decimal
	LeadTimeDays int
	ActorID      uuid.UUID
	ActorRole    string
}

// ConcludeInput accepts one vendor's final terms.
type ConcludeInput struct {
	TenantID       uuid.UUID
	SessionID      uuid.UUID
	VendorID       uuid.UUID
	AgreedPrice    decimal.Decimal
	AgreedLeadDays int
	Notes          *string
	Terms          *string
	ActorID        uuid.UUID
	ActorRole      string
}

// RejectInput closes a session without agreement.
type RejectInput struct {
	TenantID  uuid.UUID
	SessionID uuid.UUID
	Reason    string
	ActorID   uuid.UUID
	ActorRole string
}

// EscalateInput hands a stuck session to a higher decision level.
type EscalateInput struct {
	TenantID  uuid.UUID
	SessionID uuid.UUID
	Reason    string
	Severity  enums.EscalationSeverity
	ActorID   uuid.UUID
	ActorRole string
}

// DeadlineResult reports the deadline set and whether it is urgent.
type DeadlineResult struct {
	SessionID uuid.UUID `json:"session_id"`
	Deadline  time.Time `json:"deadline"`
	IsUrgent  bool      `json:"is_urgent"`
}

// SessionEvent is the payload shared by session lifecycle events.
type SessionEvent struct {
	SessionID uuid.UUID               `json:"session_id"`
	OrderID   uuid.UUID               `json:"order_id"`
	VendorID  uuid.UUID               `json:"vendor_id"`
	TenantID  uuid.UUID               `json:"tenant_id"`
	Status    enums.NegotiationStatus `json:"status"`
	Round     int                     `json:"round"`
	Price     decimal.Decimal         `json:"price"`
	LeadDays  int                     `json:"lead_days"`
	Reason    string                  `json:"reason,omitempty"`
}

// NewService builds a negotiation coordinator with the required dependencies.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, rulesSvc rulesProvider) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("negotiation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if rulesSvc == nil {
		return nil, fmt.Errorf("rules provider required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: emitter,
		rules:  rulesSvc,
		now:    time.Now,
	}, nil
}

func (s *service) StartNegotiation(ctx context.Context, input StartInput) (*models.NegotiationSession, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	if input.OrderID == uuid.Nil || input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and vendor id required")
	}
	if input.InitialPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.InitialLeadDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time must be positive")
	}

	var session *models.NegotiationSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadTenantOrder(ctx, repo, input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusVendorNegotiation {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order must be in vendor_negotiation to start a session, is %s", order.Status))
		}

		session = &models.NegotiationSession{
			TenantID:        input.TenantID,
			OrderID:         input.OrderID,
			VendorID:        input.VendorID,
			Status:          enums.NegotiationStatusOpen,
			Round:           0,
			InitialPrice:    input.InitialPrice,
			InitialLeadDays: input.InitialLeadDays,
			LatestPrice:     input.InitialPrice,
			LatestLeadDays:  input.InitialLeadDays,
		}
		if _, err := repo.Create(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
		}

		return s.emitSessionEvent(ctx, tx, enums.EventNegotiationStarted, session, input.ActorID, input.ActorRole, "")
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) ProposeTerms(ctx context.Context, input ProposeInput) (*models.NegotiationSession, error) {
	// All numeric checks happen before any state is touched; a failure
	// leaves the session's round counter untouched.
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.LeadTimeDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time must be positive")
	}

	var session *models.NegotiationSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantSession(ctx, repo, input.TenantID, input.SessionID)
		if err != nil {
			return err
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("session is %s, no further rounds", loaded.Status))
		}

		verdict := s.rules.Engine().ValidateNegotiationTerms(rules.NegotiationTerms{
			Round:         loaded.Round,
			OriginalPrice: loaded.InitialPrice,
			ProposedPrice: input.Price,
		})
		if !verdict.Valid {
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "proposed terms violate negotiation rules").
				WithDetails(map[string]any{
					"violations": verdict.Violations,
					"warnings":   verdict.Warnings,
				})
		}

		loaded.Round++
		loaded.LatestPrice = input.Price
		loaded.LatestLeadDays = input.LeadTimeDays
		loaded.Status = enums.NegotiationStatusCountered
		if _, err := repo.Update(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update session")
		}
		session = loaded

		return s.emitSessionEvent(ctx, tx, enums.EventNegotiationCountered, loaded, input.ActorID, input.ActorRole, "")
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) ConcludeNegotiation(ctx context.Context, input ConcludeInput) (*models.NegotiationSession, error) {
	if input.AgreedPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreed price must be non-negative")
	}
	if input.AgreedLeadDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreed lead time must be positive")
	}

	var session *models.NegotiationSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantSession(ctx, repo, input.TenantID, input.SessionID)
		if err != nil {
			return err
		}
		if input.VendorID != uuid.Nil && loaded.VendorID != input.VendorID {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor does not match session")
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("session is already %s", loaded.Status))
		}

		// Cross-session invariant: at most one accepted session per order.
		accepted, err := repo.CountAcceptedForOrder(ctx, loaded.OrderID, loaded.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count accepted sessions")
		}
		if accepted > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "another session for this order is already accepted")
		}

		order, err := s.loadTenantOrder(ctx, repo, input.TenantID, loaded.OrderID)
		if err != nil {
			return err
		}

		now := s.now()
		loaded.Status = enums.NegotiationStatusAccepted
		loaded.LatestPrice = input.AgreedPrice
		loaded.LatestLeadDays = input.AgreedLeadDays
		loaded.ClosedAt = &now
		if input.Notes != nil {
			loaded.Notes = input.Notes
		}
		if _, err := repo.Update(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept session")
		}

		// Materialize the quote onto the order in the same transaction so
		// the stage guard never sees a half-populated projection.
		quotation := input.AgreedPrice.Mul(quoteMarkupFactor).Round(2)
		vendorID := loaded.VendorID
		leadDays := input.AgreedLeadDays
		order.VendorID = &vendorID
		order.VendorQuotedPrice = &input.AgreedPrice
		order.QuotationAmount = &quotation
		order.VendorLeadTimeDays = &leadDays
		order.NegotiationNotes = input.Notes
		order.VendorTerms = input.Terms
		if _, err := repo.SaveOrderQuote(ctx, order, order.Version); err != nil {
			return err
		}
		session = loaded

		if err := s.emitSessionEvent(ctx, tx, enums.EventNegotiationConcluded, loaded, input.ActorID, input.ActorRole, ""); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorAssigned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, TenantID: input.TenantID, Role: input.ActorRole},
			Data: SessionEvent{
				SessionID: loaded.ID,
				OrderID:   order.ID,
				VendorID:  loaded.VendorID,
				TenantID:  input.TenantID,
				Status:    loaded.Status,
				Round:     loaded.Round,
				Price:     input.AgreedPrice,
				LeadDays:  input.AgreedLeadDays,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) RejectNegotiation(ctx context.Context, input RejectInput) (*models.NegotiationSession, error) {
	var session *models.NegotiationSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantSession(ctx, repo, input.TenantID, input.SessionID)
		if err != nil {
			return err
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("session is already %s", loaded.Status))
		}

		now := s.now()
		loaded.Status = enums.NegotiationStatusRejected
		loaded.ClosedAt = &now
		if input.Reason != "" {
			reason := input.Reason
			loaded.Notes = &reason
		}
		if _, err := repo.Update(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject session")
		}
		session = loaded

		return s.emitSessionEvent(ctx, tx, enums.EventNegotiationConcluded, loaded, input.ActorID, input.ActorRole, input.Reason)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) ListForOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.NegotiationSession, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	if _, err := s.loadTenantOrder(ctx, s.repo, tenantID, orderID); err != nil {
		return nil, err
	}
	sessions, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sessions")
	}
	return sessions, nil
}

func (s *service) SetNegotiationDeadline(ctx context.Context, tenantID, sessionID uuid.UUID, daysFromNow int) (*DeadlineResult, error) {
	if daysFromNow <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline must be in the future")
	}

	var result *DeadlineResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, err := s.loadTenantSession(ctx, repo, tenantID, sessionID)
		if err != nil {
			return err
		}
		if session.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("session is %s, deadline is moot", session.Status))
		}

		deadline := s.now().AddDate(0, 0, daysFromNow)
		session.Deadline = &deadline
		if _, err := repo.Update(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set deadline")
		}

		result = &DeadlineResult{
			SessionID: session.ID,
			Deadline:  deadline,
			IsUrgent:  daysFromNow <= urgentDeadlineDays,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) EscalateNegotiation(ctx context.Context, input EscalateInput) (*models.NegotiationSession, error) {
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "escalation reason required")
	}
	severity := input.Severity
	if severity == "" {
		severity = enums.EscalationSeverityMedium
	}
	if !severity.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid escalation severity %q", input.Severity))
	}

	var session *models.NegotiationSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantSession(ctx, repo, input.TenantID, input.SessionID)
		if err != nil {
			return err
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("session is already %s", loaded.Status))
		}

		level := escalationLevel(severity, s.now().Sub(loaded.CreatedAt))
		escalationID := newEscalationID()
		reason := input.Reason

		// Escalation is not terminal: the session stays eligible to be
		// accepted or rejected afterwards.
		loaded.Status = enums.NegotiationStatusEscalated
		loaded.EscalationID = &escalationID
		loaded.EscalationLevel = &level
		loaded.EscalationReason = &reason
		if _, err := repo.Update(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "escalate session")
		}
		session = loaded

		return s.emitSessionEvent(ctx, tx, enums.EventNegotiationEscalated, loaded, input.ActorID, input.ActorRole, input.Reason)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ExpireOverdue closes sessions whose business deadline has passed. It is
// invoked by the cron worker, not by request handlers.
func (s *service) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	expired := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		overdue, err := repo.FindOverdue(ctx, now, limit)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find overdue sessions")
		}

		for i := range overdue {
			session := &overdue[i]
			closedAt := now
			session.Status = enums.NegotiationStatusExpired
			session.ClosedAt = &closedAt
			if _, err := repo.Update(ctx, session); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire session")
			}
			if err := s.emitSessionEvent(ctx, tx, enums.EventNegotiationExpired, session, uuid.Nil, "", "deadline passed"); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// CompareQuotes summarizes candidate quotes for selection. Pure computation,
// no session side effects.
func CompareQuotes(quotes []Quote) (*QuoteComparison, error) {
	if len(quotes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one quote required")
	}

	sorted := make([]Quote, len(quotes))
	copy(sorted, quotes)
	sortQuotesByPrice(sorted)

	total := decimal.Zero
	for _, q := range sorted {
		total = total.Add(q.Price)
	}

	return &QuoteComparison{
		Count:        len(sorted),
		MinPrice:     sorted[0].Price,
		MaxPrice:     sorted[len(sorted)-1].Price,
		AveragePrice: total.Div(decimal.NewFromInt(int64(len(sorted)))).Round(2),
		Quotes:       sorted,
	}, nil
}

func (s *service) loadTenantSession(ctx context.Context, repo Repository, tenantID, sessionID uuid.UUID) (*models.NegotiationSession, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	session, err := repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "negotiation session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "session does not belong to tenant")
	}
	return session, nil
}

func (s *service) loadTenantOrder(ctx context.Context, repo Repository, tenantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to tenant")
	}
	return order, nil
}

func (s *service) emitSessionEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, session *models.NegotiationSession, actorID uuid.UUID, actorRole, reason string) error {
	var actor *outbox.ActorRef
	if actorID != uuid.Nil {
		actor = &outbox.ActorRef{UserID: actorID, TenantID: session.TenantID, Role: actorRole}
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateNegotiationSession,
		AggregateID:   session.ID,
		Actor:         actor,
		Data: SessionEvent{
			SessionID: session.ID,
			OrderID:   session.OrderID,
			VendorID:  session.VendorID,
			TenantID:  session.TenantID,
			Status:    session.Status,
			Round:     session.Round,
			Price:     session.LatestPrice,
			LeadDays:  session.LatestLeadDays,
			Reason:    reason,
		},
		Version: 1,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit session event")
	}
	return nil
}

// escalationLevel picks who handles the escalation from severity, bumped a
// level when the session has been dragging for over two weeks.
func escalationLevel(severity enums.EscalationSeverity, age time.Duration) enums.EscalationLevel {
	ladder := []enums.EscalationLevel{
		enums.EscalationLevelTeam,
		enums.EscalationLevelSupervisor,
		enums.EscalationLevelManagement,
		enums.EscalationLevelExecutive,
	}

	idx := 0
	switch severity {
	case enums.EscalationSeverityCritical:
		idx = 3
	case enums.EscalationSeverityHigh:
		idx = 2
	case enums.EscalationSeverityMedium:
		idx = 1
	}

	if age > 14*24*time.Hour && idx < len(ladder)-1 {
		idx++
	}
	return ladder[idx]
}

func newEscalationID() string {
	return "ESC-" + strings.ToUpper(uuid.NewString()[:8])
}
