package quotations

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/repairops-backend/internal/sequence"
	dbpkg "github.com/angelmondragon/repairops-backend/pkg/db"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupQuotationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range []string{`
CREATE TABLE sequence_counters (
  kind TEXT PRIMARY KEY,
  last_value INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`, `
CREATE TABLE quotations (
  id TEXT PRIMARY KEY,
  sequence_number INTEGER NOT NULL UNIQUE,
  order_ref TEXT,
  budget_ref TEXT,
  client TEXT,
  status TEXT NOT NULL DEFAULT 'new',
  requester_id TEXT NOT NULL,
  buyer_id TEXT,
  notes TEXT,
  cancel_reason TEXT,
  quoted_at DATETIME,
  approved_at DATETIME,
  approved_by TEXT,
  approval_notes TEXT,
  purchased_at DATETIME,
  purchased_by TEXT,
  purchase_notes TEXT,
  cancelled_at DATETIME,
  cancelled_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE quotation_items (
  id TEXT PRIMARY KEY,
  quotation_id TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  part_code TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT,
  delivery_term TEXT,
  supplier TEXT,
  notes TEXT,
  needs_registration INTEGER NOT NULL DEFAULT 0,
  catalog_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type recordingOutbox struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
	err    error
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingOutbox) types() []enums.OutboxEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]enums.OutboxEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingMetrics) ObserveTransition(aggregate, action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.calls = append(r.calls, aggregate+":"+action+":"+outcome)
}

type fixture struct {
	db        *gorm.DB
	svc       Service
	outbox    *recordingOutbox
	metrics   *recordingMetrics
	requester Actor
	buyer     Actor
	manager   Actor
	admin     Actor
	colleague Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupQuotationsTestDB(t)
	ob := &recordingOutbox{}
	metrics := &recordingMetrics{}
	svc, err := NewService(NewRepository(db), dbpkg.NewFromConn(db), ob, sequence.NewAllocator(), metrics, nil)
	require.NoError(t, err)

	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	return &fixture{
		db:        db,
		svc:       svc,
		outbox:    ob,
		metrics:   metrics,
		requester: Actor{ID: uuid.New(), Role: enums.ActorRoleSalesConsultant},
		buyer:     Actor{ID: uuid.New(), Role: enums.ActorRoleBuyer},
		manager:   Actor{ID: uuid.New(), Role: enums.ActorRoleManager},
		admin:     Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
		colleague: Actor{ID: uuid.New(), Role: enums.ActorRoleTechnician},
	}
}

func strPtr(v string) *string {
	return &v
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func validItem(code string, qty int) ItemInput {
	return ItemInput{PartCode: code, Description: "part " + code, Quantity: qty}
}

// createQuotation opens a quotation with the given items as the fixture's
// requester and returns its detail.
func (f *fixture) createQuotation(t *testing.T, items ...ItemInput) *QuotationDetail {
	t.Helper()
	if len(items) == 0 {
		items = []ItemInput{validItem("P-1", 2)}
	}
	res, err := f.svc.Create(context.Background(), CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-1001")},
		Items:  items,
		Actor:  f.requester,
	})
	require.NoError(t, err)
	detail, err := f.svc.Get(context.Background(), res.ID, f.admin)
	require.NoError(t, err)
	return detail
}

// advance drives a fresh quotation to status using the fixture's actors.
func (f *fixture) advance(t *testing.T, status enums.QuotationStatus) *QuotationDetail {
	t.Helper()
	ctx := context.Background()
	q := f.createQuotation(t, validItem("P-1", 2))
	if status == enums.QuotationStatusNew {
		return q
	}
	var err error
	if status == enums.QuotationStatusCancelled {
		q, err = f.svc.Cancel(ctx, CancelInput{QuotationID: q.ID, Actor: f.requester, Reason: "no longer needed"})
		require.NoError(t, err)
		return q
	}
	q, err = f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)
	if status == enums.QuotationStatusQuoting {
		return q
	}
	q, err = f.svc.Quote(ctx, QuoteInput{
		QuotationID: q.ID,
		Actor:       f.buyer,
		Items:       []ItemResponse{{ItemID: q.Items[0].ID, UnitPrice: price("10.00")}},
	})
	require.NoError(t, err)
	if status == enums.QuotationStatusQuoted {
		return q
	}
	q, err = f.svc.Approve(ctx, ApproveInput{QuotationID: q.ID, Actor: f.requester})
	require.NoError(t, err)
	if status == enums.QuotationStatusApprovedForPurchase {
		return q
	}
	q, err = f.svc.Purchase(ctx, PurchaseInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)
	return q
}
