package quotations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/angelmondragon/repairops-backend/internal/sequence"
	dbpkg "github.com/angelmondragon/repairops-backend/pkg/db"
	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
	"github.com/angelmondragon/repairops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if got := pkgerrors.CodeOf(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{Client: strPtr("Acme Mining")},
		Items:  []ItemInput{{PartCode: "A1", Description: "seal", Quantity: 2}},
		Actor:  f.requester,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.SequenceNumber)
	assert.Equal(t, enums.QuotationStatusNew, created.Status)

	q, err := f.svc.Claim(ctx, ClaimInput{QuotationID: created.ID, Actor: f.buyer})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusQuoting, q.Status)
	require.NotNil(t, q.BuyerID)
	assert.Equal(t, f.buyer.ID, *q.BuyerID)

	_, err = f.svc.Quote(ctx, QuoteInput{QuotationID: q.ID, Actor: f.buyer})
	assertCode(t, err, pkgerrors.CodeValidation)

	q, err = f.svc.Quote(ctx, QuoteInput{
		QuotationID: q.ID,
		Actor:       f.buyer,
		Items:       []ItemResponse{{ItemID: q.Items[0].ID, UnitPrice: price("10")}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusQuoted, q.Status)
	assert.True(t, q.Total.Equal(decimal.NewFromInt(20)), "total %s", q.Total)
	require.NotNil(t, q.QuotedAt)

	_, err = f.svc.Approve(ctx, ApproveInput{QuotationID: q.ID, Actor: f.colleague})
	assertCode(t, err, pkgerrors.CodeForbidden)

	q, err = f.svc.Approve(ctx, ApproveInput{QuotationID: q.ID, Actor: f.requester, Notes: strPtr(" go ahead ")})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusApprovedForPurchase, q.Status)
	require.NotNil(t, q.ApprovalNotes)
	assert.Equal(t, "go ahead", *q.ApprovalNotes)

	q, err = f.svc.Purchase(ctx, PurchaseInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusPurchased, q.Status)
	require.NotNil(t, q.PurchasedBy)
	assert.Equal(t, f.buyer.ID, *q.PurchasedBy)

	_, err = f.svc.Cancel(ctx, CancelInput{QuotationID: q.ID, Actor: f.requester, Reason: "changed my mind"})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventQuotationCreated,
		enums.EventQuotationClaimed,
		enums.EventQuotationQuoted,
		enums.EventQuotationApproved,
		enums.EventQuotationPurchased,
	}, f.outbox.types())
}

// perform runs action with inputs and actors that satisfy every precondition,
// so only transition legality decides the outcome. Claims go through the
// fixture buyer so re-claiming a quoting quotation stays idempotent.
func perform(ctx context.Context, f *fixture, q *QuotationDetail, action enums.QuotationAction) error {
	var err error
	switch action {
	case enums.QuotationActionClaim:
		_, err = f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.buyer})
	case enums.QuotationActionQuote:
		responses := make([]ItemResponse, 0, len(q.Items))
		for _, item := range q.Items {
			responses = append(responses, ItemResponse{ItemID: item.ID, UnitPrice: price("5")})
		}
		_, err = f.svc.Quote(ctx, QuoteInput{QuotationID: q.ID, Actor: f.admin, Items: responses})
	case enums.QuotationActionApprove:
		_, err = f.svc.Approve(ctx, ApproveInput{QuotationID: q.ID, Actor: f.admin})
	case enums.QuotationActionPurchase:
		_, err = f.svc.Purchase(ctx, PurchaseInput{QuotationID: q.ID, Actor: f.admin})
	case enums.QuotationActionCancel:
		_, err = f.svc.Cancel(ctx, CancelInput{QuotationID: q.ID, Actor: f.admin, Reason: "duplicate"})
	case enums.QuotationActionEdit:
		_, err = f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.admin, Items: []ItemInput{validItem("EXTRA", 1)}})
	case enums.QuotationActionDelete:
		err = f.svc.Delete(ctx, DeleteInput{QuotationID: q.ID, Actor: f.admin})
	default:
		err = fmt.Errorf("unhandled action %s", action)
	}
	return err
}

func TestTransitionTotality(t *testing.T) {
	for _, status := range enums.QuotationStatuses() {
		for _, action := range enums.QuotationActions() {
			status, action := status, action
			t.Run(fmt.Sprintf("%s/%s", status, action), func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				q := f.advance(t, status)

				err := perform(ctx, f, q, action)
				if !CanTransition(status, action) {
					assertCode(t, err, pkgerrors.CodeInvalidTransition)
					after, getErr := f.svc.Get(ctx, q.ID, f.admin)
					require.NoError(t, getErr)
					assert.Equal(t, status, after.Status)
					assert.Equal(t, q.UpdatedAt, after.UpdatedAt)
					return
				}
				require.NoError(t, err)
				if action == enums.QuotationActionDelete {
					_, getErr := f.svc.Get(ctx, q.ID, f.admin)
					assertCode(t, getErr, pkgerrors.CodeNotFound)
					return
				}
				after, getErr := f.svc.Get(ctx, q.ID, f.admin)
				require.NoError(t, getErr)
				assert.Equal(t, TargetStatus(status, action), after.Status)
			})
		}
	}
}

func TestTerminalImmutability(t *testing.T) {
	for _, status := range []enums.QuotationStatus{enums.QuotationStatusPurchased, enums.QuotationStatusCancelled} {
		f := newFixture(t)
		ctx := context.Background()
		q := f.advance(t, status)
		before := len(f.outbox.types())

		for _, actor := range []Actor{f.admin, f.requester, f.buyer} {
			for _, action := range enums.QuotationActions() {
				err := func() error {
					switch action {
					case enums.QuotationActionClaim:
						_, err := f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: actor})
						return err
					case enums.QuotationActionEdit:
						_, err := f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: actor, RemovedItemIDs: []uuid.UUID{q.Items[0].ID}})
						return err
					case enums.QuotationActionDelete:
						return f.svc.Delete(ctx, DeleteInput{QuotationID: q.ID, Actor: actor})
					default:
						return perform(ctx, f, q, action)
					}
				}()
				assertCode(t, err, pkgerrors.CodeInvalidTransition)
			}
		}

		after, err := f.svc.Get(ctx, q.ID, f.admin)
		require.NoError(t, err)
		assert.Equal(t, q, after)
		assert.Len(t, f.outbox.types(), before)
	}
}

func TestCreateDropsInvalidItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{BudgetRef: strPtr("  B-77 ")},
		Items: []ItemInput{
			validItem("P-1", 1),
			{PartCode: "", Description: "missing code", Quantity: 1},
			{PartCode: "P-3", Description: "zero", Quantity: 0},
			{PartCode: " P-4 ", Description: " gasket ", Quantity: 4, NeedsRegistration: true},
		},
		Actor: f.requester,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemCount)
	assert.Equal(t, 2, res.DroppedItems)

	q, err := f.svc.Get(ctx, res.ID, f.requester)
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "P-1", q.Items[0].PartCode)
	assert.Equal(t, 1, q.Items[0].Position)
	assert.Equal(t, "P-4", q.Items[1].PartCode)
	assert.Equal(t, "gasket", q.Items[1].Description)
	assert.Equal(t, 2, q.Items[1].Position)
	assert.True(t, q.Items[1].NeedsRegistration)
	require.NotNil(t, q.BudgetRef)
	assert.Equal(t, "B-77", *q.BudgetRef)
	assert.Nil(t, q.BuyerID)

	created := f.outbox.events[0].Data.(payloads.QuotationCreatedEvent)
	assert.Equal(t, 2, created.DroppedItems)
	assert.Equal(t, enums.AggregateQuotation, f.outbox.events[0].AggregateType)
	assert.Equal(t, res.ID, f.outbox.events[0].AggregateID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{OrderRef: strPtr("   "), Notes: strPtr("urgent")},
		Items:  []ItemInput{validItem("P-1", 1)},
		Actor:  f.requester,
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-1")},
		Items:  []ItemInput{{PartCode: "P-1", Description: "x", Quantity: -1}},
		Actor:  f.requester,
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-1")},
		Items:  []ItemInput{validItem("P-1", 1)},
		Actor:  f.buyer,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-1")},
		Items:  []ItemInput{validItem("P-1", 1)},
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	var count int64
	require.NoError(t, f.db.Model(&models.Quotation{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.outbox.types())
}

func TestConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	numbers := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			res, err := f.svc.Create(ctx, CreateInput{
				Header: HeaderInput{OrderRef: strPtr(fmt.Sprintf("OS-%d", idx))},
				Items:  []ItemInput{validItem("P-1", 1)},
				Actor:  f.requester,
			})
			errs[idx] = err
			if err == nil {
				numbers[idx] = res.SequenceNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[numbers[i]], "duplicate sequence number %d", numbers[i])
		seen[numbers[i]] = true
	}
	for n := int64(1); n <= workers; n++ {
		assert.True(t, seen[n], "missing sequence number %d", n)
	}
}

func TestOutboxFailureRollsBackCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.outbox.err = errors.New("outbox unavailable")

	_, err := f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-1")},
		Items:  []ItemInput{validItem("P-1", 1)},
		Actor:  f.requester,
	})
	assertCode(t, err, pkgerrors.CodeDependency)

	var quotations, items int64
	require.NoError(t, f.db.Model(&models.Quotation{}).Count(&quotations).Error)
	require.NoError(t, f.db.Model(&models.QuotationItem{}).Count(&items).Error)
	assert.Zero(t, quotations)
	assert.Zero(t, items)

	current, err := sequence.NewAllocator().Current(ctx, f.db, enums.CounterKindQuotation)
	require.NoError(t, err)
	assert.Zero(t, current)

	f.outbox.err = nil
	res, err := f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-1")},
		Items:  []ItemInput{validItem("P-1", 1)},
		Actor:  f.requester,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SequenceNumber)
}

func TestClaimRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t)

	_, err := f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.requester})
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Claim(ctx, ClaimInput{QuotationID: uuid.New(), Actor: f.buyer})
	assertCode(t, err, pkgerrors.CodeNotFound)

	claimed, err := f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)
	events := len(f.outbox.types())

	again, err := f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)
	assert.Equal(t, claimed.UpdatedAt, again.UpdatedAt)
	assert.Len(t, f.outbox.types(), events, "idempotent claim must not emit")

	_, err = f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.manager})
	assertCode(t, err, pkgerrors.CodeConflict)

	_, err = f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.admin})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t)

	buyers := []Actor{f.buyer, f.manager, {ID: uuid.New(), Role: enums.ActorRoleBuyer}, {ID: uuid.New(), Role: enums.ActorRoleManager}}
	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, buyer := range buyers {
		wg.Add(1)
		go func(idx int, actor Actor) {
			defer wg.Done()
			_, errs[idx] = f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: actor})
		}(i, buyer)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assertCode(t, err, pkgerrors.CodeConflict)
	}
	assert.Equal(t, 1, wins)
}

func TestQuoteCompleteness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t,
		validItem("P-1", 1),
		ItemInput{PartCode: "NEW-1", Description: "unregistered valve", Quantity: 3, NeedsRegistration: true},
	)
	q, err := f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)
	first, second := q.Items[0].ID, q.Items[1].ID

	_, err = f.svc.Quote(ctx, QuoteInput{QuotationID: q.ID, Actor: f.manager, Items: []ItemResponse{
		{ItemID: first, UnitPrice: price("1")},
		{ItemID: second, UnitPrice: price("1"), CatalogCode: strPtr("CAT-1")},
	}})
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Quote(ctx, QuoteInput{QuotationID: q.ID, Actor: f.buyer, Items: []ItemResponse{
		{ItemID: uuid.New(), UnitPrice: price("1")},
	}})
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Quote(ctx, QuoteInput{QuotationID: q.ID, Actor: f.buyer, Items: []ItemResponse{
		{ItemID: first, UnitPrice: price("4.50")},
		{ItemID: second, UnitPrice: price("2.00")},
	}})
	assertCode(t, err, pkgerrors.CodeValidation)

	unchanged, err := f.svc.Get(ctx, q.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusQuoting, unchanged.Status)
	assert.Nil(t, unchanged.Items[0].UnitPrice, "failed quote must not persist prices")

	quoted, err := f.svc.Quote(ctx, QuoteInput{QuotationID: q.ID, Actor: f.buyer, Notes: strPtr("valid 15 days"), Items: []ItemResponse{
		{ItemID: first, UnitPrice: price("4.50"), Supplier: strPtr("Bosch"), DeliveryTerm: strPtr("5 days")},
		{ItemID: second, UnitPrice: price("2.00"), CatalogCode: strPtr(" CAT-1 ")},
	}})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusQuoted, quoted.Status)
	assert.True(t, quoted.Total.Equal(decimal.RequireFromString("10.50")), "total %s", quoted.Total)
	require.NotNil(t, quoted.Items[1].CatalogCode)
	assert.Equal(t, "CAT-1", *quoted.Items[1].CatalogCode)
	require.NotNil(t, quoted.Items[0].Supplier)
	assert.Equal(t, "Bosch", *quoted.Items[0].Supplier)
	require.NotNil(t, quoted.Notes)
	assert.Equal(t, "valid 15 days", *quoted.Notes)

	last := f.outbox.events[len(f.outbox.events)-1]
	event := last.Data.(payloads.QuotationTransitionEvent)
	require.NotNil(t, event.Total)
	assert.True(t, event.Total.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, enums.QuotationStatusQuoting, event.From)
	assert.Equal(t, enums.QuotationStatusQuoted, event.To)
}

func TestEditingOnePriceOnlyMovesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t,
		ItemInput{PartCode: "P-1", Description: "seal", Quantity: 2, UnitPrice: price("10")},
		ItemInput{PartCode: "P-2", Description: "bolt", Quantity: 5, UnitPrice: price("1.20")},
	)
	assert.True(t, q.Total.Equal(decimal.NewFromInt(26)))

	edited, err := f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.requester, Items: []ItemInput{
		{ID: &q.Items[0].ID, PartCode: "P-1", Description: "seal", Quantity: 2, UnitPrice: price("12")},
	}})
	require.NoError(t, err)
	assert.True(t, edited.Total.Equal(decimal.NewFromInt(30)), "total %s", edited.Total)
	assert.Equal(t, q.Items[1], edited.Items[1])
	assert.True(t, edited.Items[0].LineTotal.Equal(decimal.NewFromInt(24)))
}

func TestEditItemsIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t, validItem("P-1", 1), validItem("P-2", 2))
	before := len(f.outbox.types())

	_, err := f.svc.EditItems(ctx, EditItemsInput{
		QuotationID:    q.ID,
		Actor:          f.requester,
		RemovedItemIDs: []uuid.UUID{q.Items[1].ID},
		Items: []ItemInput{
			{ID: &q.Items[0].ID, PartCode: "P-1", Description: "renamed", Quantity: 9},
			validItem("P-3", 1),
			{PartCode: "P-4", Description: "broken", Quantity: 0},
		},
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	after, err := f.svc.Get(ctx, q.ID, f.requester)
	require.NoError(t, err)
	assert.Equal(t, q.Items, after.Items)
	assert.Equal(t, q.UpdatedAt, after.UpdatedAt)
	assert.Len(t, f.outbox.types(), before)
}

func TestEditItemsMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t, validItem("P-1", 1), validItem("P-2", 2), validItem("P-3", 3))

	edited, err := f.svc.EditItems(ctx, EditItemsInput{
		QuotationID:    q.ID,
		Actor:          f.requester,
		RemovedItemIDs: []uuid.UUID{q.Items[1].ID},
		Items: []ItemInput{
			{ID: &q.Items[0].ID, PartCode: "P-1", Description: "updated", Quantity: 7, NeedsRegistration: true},
			validItem("P-4", 4),
		},
		Notes: strPtr("bring the old part"),
	})
	require.NoError(t, err)
	require.Len(t, edited.Items, 3)
	assert.Equal(t, "updated", edited.Items[0].Description)
	assert.Equal(t, 7, edited.Items[0].Quantity)
	assert.True(t, edited.Items[0].NeedsRegistration)
	assert.Equal(t, "P-3", edited.Items[1].PartCode)
	assert.Equal(t, "P-4", edited.Items[2].PartCode)
	assert.Equal(t, 4, edited.Items[2].Position)
	require.NotNil(t, edited.Notes)
	assert.Equal(t, "bring the old part", *edited.Notes)
	assert.Equal(t, enums.QuotationStatusNew, edited.Status)

	last := f.outbox.events[len(f.outbox.events)-1]
	summary := last.Data.(payloads.QuotationItemsEditedEvent)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 3, summary.ItemCount)
}

func TestBuyerEditKeepsRegistrationFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t,
		ItemInput{PartCode: "NEW-1", Description: "unregistered valve", Quantity: 1, NeedsRegistration: true},
		validItem("P-2", 2),
	)
	q, err := f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)

	edited, err := f.svc.EditItems(ctx, EditItemsInput{
		QuotationID: q.ID,
		Actor:       f.buyer,
		Items: []ItemInput{
			{ID: &q.Items[0].ID, PartCode: "NEW-1", Description: "valve, alt supplier", Quantity: 1, NeedsRegistration: false},
			{ID: &q.Items[1].ID, PartCode: "P-2", Description: "part P-2", Quantity: 2, NeedsRegistration: true},
			{PartCode: "P-3", Description: "gasket", Quantity: 4, NeedsRegistration: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, edited.Items, 3)
	assert.Equal(t, "valve, alt supplier", edited.Items[0].Description)
	assert.True(t, edited.Items[0].NeedsRegistration)
	assert.False(t, edited.Items[1].NeedsRegistration)
	assert.False(t, edited.Items[2].NeedsRegistration)

	edited, err = f.svc.EditItems(ctx, EditItemsInput{
		QuotationID: q.ID,
		Actor:       f.requester,
		Items:       []ItemInput{{ID: &q.Items[1].ID, PartCode: "P-2", Description: "part P-2", Quantity: 2, NeedsRegistration: true}},
	})
	require.NoError(t, err)
	assert.True(t, edited.Items[1].NeedsRegistration)
}

func TestEditItemsRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t, validItem("P-1", 1))

	_, err := f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.requester})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.requester, RemovedItemIDs: []uuid.UUID{q.Items[0].ID}})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.requester, RemovedItemIDs: []uuid.UUID{uuid.New()}})
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.requester,
		RemovedItemIDs: []uuid.UUID{q.Items[0].ID},
		Items:          []ItemInput{{ID: &q.Items[0].ID, PartCode: "P-1", Description: "x", Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.buyer, Items: []ItemInput{validItem("P-9", 1)}})
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Claim(ctx, ClaimInput{QuotationID: q.ID, Actor: f.buyer})
	require.NoError(t, err)
	edited, err := f.svc.EditItems(ctx, EditItemsInput{QuotationID: q.ID, Actor: f.buyer, Items: []ItemInput{validItem("P-9", 1)}})
	require.NoError(t, err)
	assert.Len(t, edited.Items, 2)
	assert.Equal(t, enums.QuotationStatusQuoting, edited.Status)
}

func TestCancelRequiresReasonAndKeepsBuyer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.advance(t, enums.QuotationStatusQuoted)

	_, err := f.svc.Cancel(ctx, CancelInput{QuotationID: q.ID, Actor: f.requester, Reason: "   "})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Cancel(ctx, CancelInput{QuotationID: q.ID, Actor: f.colleague, Reason: "not mine"})
	assertCode(t, err, pkgerrors.CodeForbidden)

	cancelled, err := f.svc.Cancel(ctx, CancelInput{QuotationID: q.ID, Actor: f.manager, Reason: " supplier discontinued "})
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "supplier discontinued", *cancelled.CancelReason)
	require.NotNil(t, cancelled.BuyerID)
	assert.Equal(t, f.buyer.ID, *cancelled.BuyerID)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, f.manager.ID, *cancelled.CancelledBy)

	fresh := f.createQuotation(t)
	cancelledNew, err := f.svc.Cancel(ctx, CancelInput{QuotationID: fresh.ID, Actor: f.requester, Reason: "typo"})
	require.NoError(t, err)
	assert.Nil(t, cancelledNew.BuyerID)
}

func TestDeleteOnlyWhileNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t, validItem("P-1", 1), validItem("P-2", 1))

	err := f.svc.Delete(ctx, DeleteInput{QuotationID: q.ID, Actor: f.colleague})
	assertCode(t, err, pkgerrors.CodeForbidden)

	require.NoError(t, f.svc.Delete(ctx, DeleteInput{QuotationID: q.ID, Actor: f.requester}))
	_, err = f.svc.Get(ctx, q.ID, f.admin)
	assertCode(t, err, pkgerrors.CodeNotFound)

	var items int64
	require.NoError(t, f.db.Model(&models.QuotationItem{}).Where("quotation_id = ?", q.ID).Count(&items).Error)
	assert.Zero(t, items)
	assert.Equal(t, enums.EventQuotationDeleted, f.outbox.types()[len(f.outbox.types())-1])

	claimed := f.advance(t, enums.QuotationStatusQuoting)
	err = f.svc.Delete(ctx, DeleteInput{QuotationID: claimed.ID, Actor: f.requester})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestGetScopesRequesters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t)

	_, err := f.svc.Get(ctx, q.ID, f.colleague)
	assertCode(t, err, pkgerrors.CodeForbidden)

	got, err := f.svc.Get(ctx, q.ID, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)

	_, err = f.svc.Get(ctx, q.ID, Actor{})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestListScopesAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.createQuotation(t)
	_, err := f.svc.Create(ctx, CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-2")},
		Items:  []ItemInput{validItem("P-1", 1)},
		Actor:  f.colleague,
	})
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.requester, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Quotations, 1)
	assert.Equal(t, mine.ID, list.Quotations[0].ID)

	other := f.colleague.ID
	list, err = f.svc.List(ctx, f.requester, ListFilters{RequesterID: &other}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Quotations, 1, "requesters cannot widen their scope")
	assert.Equal(t, mine.ID, list.Quotations[0].ID)

	list, err = f.svc.List(ctx, f.buyer, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Quotations, 2)

	bad := enums.QuotationStatus("archived")
	_, err = f.svc.List(ctx, f.buyer, ListFilters{Status: &bad}, pagination.Params{})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.List(ctx, f.buyer, ListFilters{}, pagination.Params{Cursor: "%%%"})
	assertCode(t, err, pkgerrors.CodeValidation)

	from := mine.CreatedAt.Add(1)
	to := mine.CreatedAt
	_, err = f.svc.List(ctx, f.buyer, ListFilters{DateFrom: &from, DateTo: &to}, pagination.Params{})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestMetricsObserveOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuotation(t)
	_, err := f.svc.Approve(ctx, ApproveInput{QuotationID: q.ID, Actor: f.requester})
	require.Error(t, err)

	assert.Contains(t, f.metrics.calls, "quotation:create:ok")
	assert.Contains(t, f.metrics.calls, "quotation:approve:error")
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	tx := dbpkg.NewFromConn(db)
	ob := &recordingOutbox{}
	alloc := sequence.NewAllocator()

	_, err := NewService(nil, tx, ob, alloc, nil, nil)
	assert.Error(t, err)
	_, err = NewService(repo, nil, ob, alloc, nil, nil)
	assert.Error(t, err)
	_, err = NewService(repo, tx, nil, alloc, nil, nil)
	assert.Error(t, err)
	_, err = NewService(repo, tx, ob, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewService(repo, tx, ob, alloc, nil, nil)
	assert.NoError(t, err)
}

func TestRealOutboxWritesRowsInTransaction(t *testing.T) {
	db := setupQuotationsTestDB(t)
	client := dbpkg.NewFromConn(db)
	ob := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(NewRepository(db), client, ob, sequence.NewAllocator(), nil, nil)
	require.NoError(t, err)

	requester := Actor{ID: uuid.New(), Role: enums.ActorRoleTechnician}
	res, err := svc.Create(context.Background(), CreateInput{
		Header: HeaderInput{OrderRef: strPtr("OS-9")},
		Items:  []ItemInput{validItem("P-1", 1)},
		Actor:  requester,
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventQuotationCreated, rows[0].EventType)
	assert.Equal(t, res.ID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)
}
