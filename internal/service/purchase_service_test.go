package service

import (
	"context"
	"testing"

	"fleamarket/internal/domain"
	"fleamarket/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPurchaseFixture(t *testing.T, strict bool) (PurchaseService, *itemFixture, *domain.Item) {
	t.Helper()
	f := newItemFixture(nil)
	item, _ := createItem(t, f, 1)
	svc := NewPurchaseService(f.purchases, f.items, mockReferenceRepository{}, strict, zap.NewNop())
	return svc, f, item
}

func checkout(itemID int64) PurchaseInput {
	return PurchaseInput{
		ItemID:      itemID,
		PaymentID:   1,
		ShipAddress: "1-2-3 Shibuya, Tokyo",
		Email:       "buyer@example.com",
	}
}

// Feature: flea-market, Property 7: New purchases always start confirmed
func TestProperty_PurchaseStartsConfirmed(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any submitted status_id is replaced by confirmed", prop.ForAll(
		func(statusID int64) bool {
			svc, _, item := newPurchaseFixture(t, false)
			input := checkout(item.ID)
			input.StatusID = statusID

			purchase, err := svc.CreatePurchase(context.Background(), buyer, input)
			if err != nil {
				t.Logf("FAIL: purchase failed: %v", err)
				return false
			}
			if purchase.StatusID != domain.StatusConfirmed {
				t.Logf("FAIL: status_id %d stored instead of confirmed", purchase.StatusID)
				return false
			}
			return true
		},
		gen.Int64Range(-5, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreatePurchase_Validation(t *testing.T) {
	svc, _, item := newPurchaseFixture(t, false)
	ctx := context.Background()

	input := checkout(item.ID)
	input.PaymentID = 9
	_, err := svc.CreatePurchase(ctx, buyer, input)
	assert.True(t, hasFieldError(err, "payment_id"))

	input = checkout(item.ID)
	input.Email = "not-an-email"
	input.ShipAddress = "   "
	_, err = svc.CreatePurchase(ctx, buyer, input)
	assert.True(t, hasFieldError(err, "email"))
	assert.True(t, hasFieldError(err, "ship_address"))

	_, err = svc.CreatePurchase(ctx, buyer, checkout(404))
	assert.ErrorIs(t, err, repository.ErrItemNotFound)
}

func TestCreatePurchase_MarksItemPurchased(t *testing.T) {
	svc, f, item := newPurchaseFixture(t, false)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, buyer, checkout(item.ID))
	require.NoError(t, err)
	require.NotNil(t, purchase.PurchaserID)
	assert.Equal(t, buyer.UserID, *purchase.PurchaserID)

	latest, err := f.purchases.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	state := domain.DerivePurchaseState(&latest[0].StatusID)
	assert.True(t, state.Purchased)
	assert.False(t, state.SoldOut)

	_, err = svc.UpdateStatus(ctx, seller, purchase.ID, domain.StatusReceived)
	require.NoError(t, err)
	latest, err = f.purchases.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, domain.DerivePurchaseState(&latest[0].StatusID).SoldOut)
}

func TestUpdateStatus_Permissive(t *testing.T) {
	svc, _, item := newPurchaseFixture(t, false)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, buyer, checkout(item.ID))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, buyer, purchase.ID, domain.StatusReturned)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, updated.StatusID)

	updated, err = svc.UpdateStatus(ctx, admin, purchase.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.StatusID)

	_, err = svc.UpdateStatus(ctx, buyer, purchase.ID, 42)
	assert.True(t, hasFieldError(err, "status_id"))

	stranger := domain.Principal{UserID: 77, Role: domain.RoleUser}
	_, err = svc.UpdateStatus(ctx, stranger, purchase.ID, domain.StatusShipped)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateStatus(ctx, buyer, 404, domain.StatusShipped)
	assert.ErrorIs(t, err, repository.ErrPurchaseNotFound)
}

func TestUpdateStatus_Strict(t *testing.T) {
	svc, _, item := newPurchaseFixture(t, true)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, buyer, checkout(item.ID))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, seller, purchase.ID, domain.StatusReceived)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(ctx, seller, purchase.ID, domain.StatusShipped)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, buyer, purchase.ID, domain.StatusReceived)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, buyer, purchase.ID, domain.StatusReturned)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestGetReceipt_PartiesOnly(t *testing.T) {
	svc, _, item := newPurchaseFixture(t, false)
	ctx := context.Background()

	purchase, err := svc.CreatePurchase(ctx, buyer, checkout(item.ID))
	require.NoError(t, err)

	for _, p := range []domain.Principal{buyer, seller, admin} {
		receipt, err := svc.GetReceipt(ctx, p, purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, item.Price, receipt.ItemPrice)
	}

	_, err = svc.GetReceipt(ctx, domain.Principal{UserID: 77, Role: domain.RoleUser}, purchase.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListPurchases_NewestFirst(t *testing.T) {
	svc, _, item := newPurchaseFixture(t, false)
	ctx := context.Background()

	first, err := svc.CreatePurchase(ctx, buyer, checkout(item.ID))
	require.NoError(t, err)
	second, err := svc.CreatePurchase(ctx, buyer, checkout(item.ID))
	require.NoError(t, err)

	purchases, err := svc.ListPurchases(ctx, buyer.UserID)
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, second.ID, purchases[0].ID)
	assert.Equal(t, first.ID, purchases[1].ID)
}
