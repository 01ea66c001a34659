package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          payloads.OrderCreatedEvent{OrderID: orderID, TotalCents: 2500},
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var rows []models.OutboxEvent
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 outbox row, got %d", len(rows))
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(rows[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 || envelope.EventID == "" || envelope.OccurredAt.IsZero() {
		t.Fatalf("unexpected envelope header %+v", envelope)
	}
	var data payloads.OrderCreatedEvent
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.OrderID != orderID || data.TotalCents != 2500 {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)

	_ = db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]string{"k": "v"},
		}); err != nil {
			t.Fatalf("emit: %v", err)
		}
		return errors.New("abort")
	})

	var count int64
	if err := db.Model(&models.OutboxEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to discard event, got %d rows", count)
	}
}

func TestEmitRejectsUnknownTypes(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	if err := svc.Emit(context.Background(), nil, DomainEvent{}); err == nil {
		t.Fatal("expected missing transaction to fail")
	}
	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{EventType: "nope", AggregateType: enums.AggregateOrder})
	if err == nil {
		t.Fatal("expected unknown event type to fail")
	}
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	repo := NewRepository(db)

	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), AttemptCount: 3}
	third := models.OutboxEvent{EventType: enums.EventPaymentInitiated, AggregateType: enums.AggregateTransaction, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	for _, row := range []models.OutboxEvent{first, second, third} {
		if err := repo.Insert(db, row); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected only events with attempts left, got %+v", rows)
	}

	byType := map[enums.OutboxEventType]models.OutboxEvent{}
	for _, row := range rows {
		byType[row.EventType] = row
	}
	created := byType[enums.EventOrderCreated]
	initiated := byType[enums.EventPaymentInitiated]

	if err := repo.MarkFailedTx(db, created.ID, errors.New("pubsub down")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	var reloaded models.OutboxEvent
	if err := db.First(&reloaded, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.AttemptCount != 1 || reloaded.LastError == nil || *reloaded.LastError != "pubsub down" {
		t.Fatalf("unexpected failure bookkeeping %+v", reloaded)
	}

	if err := repo.MarkPublishedTx(db, created.ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := repo.MarkTerminalTx(db, initiated.ID, errors.New("unsupported"), 3); err != nil {
		t.Fatalf("mark terminal: %v", err)
	}

	rows, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	if err != nil {
		t.Fatalf("fetch after publish: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected nothing left to publish, got %+v", rows)
	}

	rows, err = repo.FetchUnpublishedForPublish(db, 10, 0)
	if err != nil {
		t.Fatalf("fetch uncapped: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected exhausted and terminal rows to stay unpublished, got %d", len(rows))
	}
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	repo := NewRepository(db)
	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)

	rows := []models.OutboxEvent{
		{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), PublishedAt: &old},
		{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), PublishedAt: &recent},
		{EventType: enums.EventOrderCancelled, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)},
	}
	for _, row := range rows {
		if err := repo.Insert(db, row); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	deleted, err := repo.DeletePublishedBefore(db, time.Now().UTC().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one pruned row, got %d", deleted)
	}
	var count int64
	if err := db.Model(&models.OutboxEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected recent and unpublished rows to remain, got %d", count)
	}
}
