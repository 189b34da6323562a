package pendencies

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
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPendenciesTestDB(t *testing.T) *gorm.DB {
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
CREATE TABLE registration_pendencies (
  id TEXT PRIMARY KEY,
  sequence_number INTEGER NOT NULL UNIQUE,
  part_code TEXT NOT NULL,
  description TEXT NOT NULL,
  brand TEXT,
  notes TEXT,
  attachment_ref TEXT,
  group_label TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  requester_id TEXT NOT NULL,
  resolver_id TEXT,
  catalog_code TEXT,
  reject_reason TEXT,
  started_at DATETIME,
  answered_at DATETIME,
  completed_at DATETIME,
  rejected_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
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

type fixture struct {
	db        *gorm.DB
	svc       Service
	outbox    *recordingOutbox
	requester Actor
	buyer     Actor
	manager   Actor
	admin     Actor
	colleague Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupPendenciesTestDB(t)
	ob := &recordingOutbox{}
	svc, err := NewService(NewRepository(db), dbpkg.NewFromConn(db), ob, sequence.NewAllocator(), nil, nil)
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
		requester: Actor{ID: uuid.New(), Role: enums.ActorRoleTechnician},
		buyer:     Actor{ID: uuid.New(), Role: enums.ActorRoleBuyer},
		manager:   Actor{ID: uuid.New(), Role: enums.ActorRoleManager},
		admin:     Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
		colleague: Actor{ID: uuid.New(), Role: enums.ActorRoleSalesConsultant},
	}
}

func strPtr(v string) *string {
	return &v
}

func (f *fixture) createPendency(t *testing.T, code string) *PendencyDetail {
	t.Helper()
	p, err := f.svc.Create(context.Background(), CreateInput{
		Part:  PartInput{PartCode: code, Description: "part " + code},
		Actor: f.requester,
	})
	require.NoError(t, err)
	return p
}

// advance drives a fresh pendency to status with the fixture buyer resolving.
func (f *fixture) advance(t *testing.T, status enums.PendencyStatus) *PendencyDetail {
	t.Helper()
	ctx := context.Background()
	p := f.createPendency(t, "PX-1")
	var err error
	switch status {
	case enums.PendencyStatusPending:
		return p
	case enums.PendencyStatusRejected:
		p, err = f.svc.Reject(ctx, RejectInput{PendencyID: p.ID, Actor: f.buyer, Reason: "duplicate of an existing code"})
		require.NoError(t, err)
		return p
	}
	p, err = f.svc.Start(ctx, StartInput{PendencyID: p.ID, Actor: f.buyer})
	require.NoError(t, err)
	if status == enums.PendencyStatusInProgress {
		return p
	}
	p, err = f.svc.Answer(ctx, AnswerInput{PendencyID: p.ID, Actor: f.buyer, CatalogCode: "CAT-100"})
	require.NoError(t, err)
	if status == enums.PendencyStatusAnswered {
		return p
	}
	p, err = f.svc.Complete(ctx, CompleteInput{PendencyID: p.ID, Actor: f.buyer})
	require.NoError(t, err)
	return p
}
