package rules

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func TestServiceUpdateSwapsRuleSet(t *testing.T) {
	emitter := &stubEmitter{}
	svc, err := NewService(testRuleSet(), stubTxRunner{}, emitter)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	next := testRuleSet()
	next.MaxNegotiationRounds = 8

	actor := outbox.ActorRef{UserID: uuid.New(), TenantID: uuid.New(), Role: "admin"}
	updated, err := svc.Update(context.Background(), next, actor)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.MaxNegotiationRounds != 8 {
		t.Fatalf("expected 8 rounds, got %d", updated.MaxNegotiationRounds)
	}
	if svc.Current().MaxNegotiationRounds != 8 {
		t.Fatal("update not visible through Current")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
}

func TestServiceUpdateRejectsInvalidRuleSet(t *testing.T) {
	emitter := &stubEmitter{}
	svc, err := NewService(testRuleSet(), stubTxRunner{}, emitter)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	bad := testRuleSet()
	bad.MinDiscountPercent = 40
	bad.MaxDiscountPercent = 25

	if _, err := svc.Update(context.Background(), bad, outbox.ActorRef{}); err == nil {
		t.Fatal("expected validation error")
	} else if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}
	if svc.Current().MaxNegotiationRounds != 5 {
		t.Fatal("failed update must not mutate the live rule set")
	}
	if len(emitter.events) != 0 {
		t.Fatal("failed update must not emit")
	}
}

func TestServiceEngineSnapshotIsStable(t *testing.T) {
	svc, err := NewService(testRuleSet(), stubTxRunner{}, &stubEmitter{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	engine := svc.Engine()

	next := testRuleSet()
	next.MaxNegotiationRounds = 2
	if _, err := svc.Update(context.Background(), next, outbox.ActorRef{}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// The snapshot taken before the update keeps the old thresholds.
	if engine.Rules().MaxNegotiationRounds != 5 {
		t.Fatal("engine snapshot changed under the caller")
	}
}
