package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/internal/verification"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/testdb"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

const deliveryCode = "4821"

type stubOTP struct {
	calls int
}

func (s *stubOTP) Validate(ctx context.Context, orderID uuid.UUID, code string) (bool, error) {
	s.calls++
	return code == deliveryCode, nil
}

// failingLedger lets wallet creation succeed and rejects every posting.
type failingLedger struct {
	settlementLedger
}

func (failingLedger) PostTx(ctx context.Context, tx *gorm.DB, input ledger.PostingInput) (*models.WalletTransaction, error) {
	return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, errors.New("disk full"), "insert wallet transaction")
}

type fulfillmentFixture struct {
	svc      Service
	db       *gorm.DB
	otp      *stubOTP
	customer models.Customer
	group    models.OrderGroup
	order    models.Order
	vendorA  models.Vendor
	vendorB  models.Vendor
	itemsA   []models.OrderItem
	itemB    models.OrderItem
	courier  models.Courier
}

type fixtureOption func(*ServiceParams)

func withLedger(wrap func(settlementLedger) settlementLedger) fixtureOption {
	return func(p *ServiceParams) { p.Ledger = wrap(p.Ledger) }
}

func withRepo(wrap func(Repository) Repository) fixtureOption {
	return func(p *ServiceParams) { p.Repo = wrap(p.Repo) }
}

// uncollectingRepo clears one item right before the vendor leg is closed, the
// way a concurrent SetItemCollected(false) would.
type uncollectingRepo struct {
	Repository
	db     *gorm.DB
	itemID *uuid.UUID
}

func (r uncollectingRepo) WithTx(tx *gorm.DB) Repository {
	return uncollectingRepo{Repository: r.Repository.WithTx(tx), db: tx, itemID: r.itemID}
}

func (r uncollectingRepo) MarkPickupCollected(ctx context.Context, orderID, vendorID uuid.UUID, at time.Time) (bool, error) {
	if err := r.db.Model(&models.OrderItem{}).Where("id = ?", *r.itemID).
		Updates(map[string]any{"collected": false, "collected_at": nil}).Error; err != nil {
		return false, err
	}
	return r.Repository.MarkPickupCollected(ctx, orderID, vendorID, at)
}

func newFulfillmentFixture(t *testing.T, opts ...fixtureOption) *fulfillmentFixture {
	t.Helper()
	client, conn := testdb.Client(t)
	f := &fulfillmentFixture{db: conn, otp: &stubOTP{}}

	f.customer = models.Customer{Name: "Asha"}
	testdb.MustCreate(t, conn, &f.customer)
	address := models.Address{CustomerID: f.customer.ID, Line1: "12 MG Road"}
	testdb.MustCreate(t, conn, &address)
	f.vendorA = models.Vendor{Name: "Fresh Farms"}
	f.vendorB = models.Vendor{Name: "Daily Dairy"}
	f.courier = models.Courier{Name: "Ravi", IsAdminVerified: true, IsKYCApproved: true}
	testdb.MustCreate(t, conn, &f.vendorA, &f.vendorB, &f.courier)

	f.group = models.OrderGroup{
		CustomerID:       f.customer.ID,
		AddressID:        address.ID,
		PaymentMethod:    enums.PaymentMethodCOD,
		PaymentStatus:    enums.PaymentStatusCOD,
		SubtotalPaise:    20000,
		DeliveryFeePaise: 3000,
		TotalPaise:       23000,
	}
	testdb.MustCreate(t, conn, &f.group)
	f.order = models.Order{
		GroupID:          f.group.ID,
		VendorID:         f.vendorA.ID,
		AddressID:        address.ID,
		OrderNumber:      "ORD-" + uuid.NewString(),
		Status:           enums.OrderStatusUnassigned,
		SubtotalPaise:    20000,
		DeliveryFeePaise: 3000,
		DistanceKm:       2.4,
		TotalPaise:       23000,
		ItemCount:        4,
		PayoutPaise:      3000,
	}
	testdb.MustCreate(t, conn, &f.order)
	f.itemsA = []models.OrderItem{
		{OrderID: f.order.ID, ProductID: uuid.New(), VendorID: f.vendorA.ID, UnitPricePaise: 5000, Quantity: 2, LineTotalPaise: 10000},
		{OrderID: f.order.ID, ProductID: uuid.New(), VendorID: f.vendorA.ID, UnitPricePaise: 5000, Quantity: 1, LineTotalPaise: 5000},
	}
	for i := range f.itemsA {
		testdb.MustCreate(t, conn, &f.itemsA[i])
	}
	f.itemB = models.OrderItem{OrderID: f.order.ID, ProductID: uuid.New(), VendorID: f.vendorB.ID, UnitPricePaise: 5000, Quantity: 1, LineTotalPaise: 5000}
	testdb.MustCreate(t, conn, &f.itemB)

	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	reg := prometheus.NewRegistry()
	domainMetrics := metrics.NewDomainMetrics(reg)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client, outboxSvc, domainMetrics, nil)
	require.NoError(t, err)
	verifier, err := verification.NewService(verification.NewRepository(conn))
	require.NoError(t, err)

	params := ServiceParams{
		Tx:             client,
		Repo:           NewRepository(conn),
		Ledger:         ledgerSvc,
		OTP:            f.otp,
		Verifier:       verifier,
		Outbox:         outboxSvc,
		Metrics:        domainMetrics,
		Logger:         logger.New(logger.Options{ServiceName: "test"}),
		CommissionRate: decimal.RequireFromString("0.1"),
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fulfillmentFixture) reload(t *testing.T) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.Preload("Pickups").Preload("Items").Where("id = ?", f.order.ID).First(&order).Error)
	return order
}

func (f *fulfillmentFixture) events(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func (f *fulfillmentFixture) collectAll(t *testing.T, items ...models.OrderItem) {
	t.Helper()
	for _, item := range items {
		_, err := f.svc.SetItemCollected(context.Background(), ItemCollectionInput{
			OrderID: f.order.ID, ItemID: item.ID, CourierID: f.courier.ID, Collected: true,
		})
		require.NoError(t, err)
	}
}

// dispatched walks the fixture order to out_for_delivery.
func (f *fulfillmentFixture) dispatched(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	f.collectAll(t, append(append([]models.OrderItem{}, f.itemsA...), f.itemB)...)
	for _, vendorID := range []uuid.UUID{f.vendorA.ID, f.vendorB.ID} {
		_, err := f.svc.ConfirmVendorPickup(ctx, PickupInput{OrderID: f.order.ID, VendorID: vendorID, CourierID: f.courier.ID})
		require.NoError(t, err)
	}
	require.Equal(t, enums.OrderStatusOutForDelivery, f.reload(t).Status)
}

func walletFor(t *testing.T, db *gorm.DB, ownerID uuid.UUID) *models.Wallet {
	t.Helper()
	var wallet models.Wallet
	err := db.Where("owner_id = ?", ownerID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	require.NoError(t, err)
	return &wallet
}

func countPostings(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&count).Error)
	return count
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	base := ServiceParams{
		Tx:       &noopTx{},
		Repo:     NewRepository(nil),
		Ledger:   failingLedger{},
		OTP:      &stubOTP{},
		Verifier: stubGate{},
		Outbox:   outbox.NewService(outbox.NewRepository(nil), nil),
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	}
	cases := map[string]func(p *ServiceParams){
		"tx":         func(p *ServiceParams) { p.Tx = nil },
		"repo":       func(p *ServiceParams) { p.Repo = nil },
		"ledger":     func(p *ServiceParams) { p.Ledger = nil },
		"otp":        func(p *ServiceParams) { p.OTP = nil },
		"verifier":   func(p *ServiceParams) { p.Verifier = nil },
		"outbox":     func(p *ServiceParams) { p.Outbox = nil },
		"logger":     func(p *ServiceParams) { p.Logger = nil },
		"commission": func(p *ServiceParams) { p.CommissionRate = decimal.RequireFromString("1.5") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := base
			mutate(&params)
			_, err := NewService(params)
			assert.Error(t, err)
		})
	}
	_, err := NewService(base)
	assert.NoError(t, err)
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type stubGate struct{}

func (stubGate) RequireVerified(context.Context, enums.WalletOwnerType, uuid.UUID) error { return nil }

func TestAcceptAssignsCourierAndCreatesVendorLegs(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAssigned, order.Status)
	require.NotNil(t, order.CourierID)
	assert.Equal(t, f.courier.ID, *order.CourierID)
	assert.NotNil(t, order.AssignedAt)
	require.Len(t, order.Pickups, 2)
	assert.ElementsMatch(t, []uuid.UUID{f.vendorA.ID, f.vendorB.ID}, []uuid.UUID{order.Pickups[0].VendorID, order.Pickups[1].VendorID})
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderAssigned))

	again, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAssigned, again.Status)
	assert.Len(t, f.reload(t).Pickups, 2)
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderAssigned))
}

func TestAcceptRequiresVerifiedCourier(t *testing.T) {
	f := newFulfillmentFixture(t)
	rookie := models.Courier{Name: "Imran", IsKYCApproved: true}
	testdb.MustCreate(t, f.db, &rookie)

	_, err := f.svc.Accept(context.Background(), AcceptInput{OrderID: f.order.ID, CourierID: rookie.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotVerified), "got %v", err)

	order := f.reload(t)
	assert.Equal(t, enums.OrderStatusUnassigned, order.Status)
	assert.Nil(t, order.CourierID)
}

func TestAcceptRequiresSettledPayment(t *testing.T) {
	f := newFulfillmentFixture(t)
	require.NoError(t, f.db.Model(&models.OrderGroup{}).Where("id = ?", f.group.ID).Update("payment_status", enums.PaymentStatusPending).Error)

	_, err := f.svc.Accept(context.Background(), AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	assert.Equal(t, enums.OrderStatusUnassigned, f.reload(t).Status)
}

func TestConcurrentAcceptHasSingleWinner(t *testing.T) {
	f := newFulfillmentFixture(t)
	rival := models.Courier{Name: "Suresh", IsAdminVerified: true, IsKYCApproved: true}
	testdb.MustCreate(t, f.db, &rival)
	couriers := []uuid.UUID{f.courier.ID, rival.ID}

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, len(couriers))
	)
	for i, courierID := range couriers {
		wg.Add(1)
		go func(i int, courierID uuid.UUID) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Accept(context.Background(), AcceptInput{OrderID: f.order.ID, CourierID: courierID})
		}(i, courierID)
	}
	close(start)
	wg.Wait()

	var winner uuid.UUID
	successes := 0
	for i, err := range errs {
		if err == nil {
			successes++
			winner = couriers[i]
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAlreadyAssigned), "loser got %v", err)
	}
	require.Equal(t, 1, successes)

	order := f.reload(t)
	require.NotNil(t, order.CourierID)
	assert.Equal(t, winner, *order.CourierID)
	assert.Len(t, order.Pickups, 2)
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderAssigned))
}

func TestAcceptCancelledOrder(t *testing.T) {
	f := newFulfillmentFixture(t)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).Update("status", enums.OrderStatusCancelled).Error)

	_, err := f.svc.Accept(context.Background(), AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "got %v", err)
}

func TestVendorLegsGateOutForDelivery(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)

	f.collectAll(t, f.itemsA...)
	order, err := f.svc.ConfirmVendorPickup(ctx, PickupInput{OrderID: f.order.ID, VendorID: f.vendorA.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAssigned, order.Status)

	_, err = f.svc.MarkOutForDelivery(ctx, CourierActionInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIncompleteCollection), "got %v", err)
	assert.Equal(t, enums.OrderStatusAssigned, f.reload(t).Status)

	_, err = f.svc.ConfirmVendorPickup(ctx, PickupInput{OrderID: f.order.ID, VendorID: f.vendorB.ID, CourierID: f.courier.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIncompleteCollection), "got %v", err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	leg, ok := typed.Details().(PendingLeg)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{f.itemB.ID}, leg.UncollectedItems)

	f.collectAll(t, f.itemB)
	order, err = f.svc.ConfirmVendorPickup(ctx, PickupInput{OrderID: f.order.ID, VendorID: f.vendorB.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, order.Status)
	assert.NotNil(t, order.PickedUpAt)
	assert.NotNil(t, order.OutForDeliveryAt)
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderOutForDelivery))

	again, err := f.svc.ConfirmVendorPickup(ctx, PickupInput{OrderID: f.order.ID, VendorID: f.vendorA.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, again.Status)
	_, err = f.svc.MarkOutForDelivery(ctx, CourierActionInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderOutForDelivery))
}

func TestConfirmPickupTwiceIsNoop(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	f.collectAll(t, f.itemsA...)

	input := PickupInput{OrderID: f.order.ID, VendorID: f.vendorA.ID, CourierID: f.courier.ID}
	first, err := f.svc.ConfirmVendorPickup(ctx, input)
	require.NoError(t, err)
	second, err := f.svc.ConfirmVendorPickup(ctx, input)
	require.NoError(t, err)

	firstLeg := findPickup(first, f.vendorA.ID)
	secondLeg := findPickup(second, f.vendorA.ID)
	require.NotNil(t, firstLeg)
	require.NotNil(t, secondLeg)
	assert.True(t, secondLeg.Collected)
	assert.True(t, firstLeg.CollectedAt.Equal(*secondLeg.CollectedAt))
	assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt))
}

func TestItemCollectionRules(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)

	_, err = f.svc.SetItemCollected(ctx, ItemCollectionInput{OrderID: f.order.ID, ItemID: f.itemB.ID, CourierID: uuid.New(), Collected: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	_, err = f.svc.SetItemCollected(ctx, ItemCollectionInput{OrderID: f.order.ID, ItemID: uuid.New(), CourierID: f.courier.ID, Collected: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	f.collectAll(t, f.itemB)
	order, err := f.svc.SetItemCollected(ctx, ItemCollectionInput{OrderID: f.order.ID, ItemID: f.itemB.ID, CourierID: f.courier.ID, Collected: false})
	require.NoError(t, err)
	assert.False(t, findItem(order, f.itemB.ID).Collected)
	assert.Nil(t, findItem(order, f.itemB.ID).CollectedAt)

	f.collectAll(t, f.itemsA...)
	_, err = f.svc.ConfirmVendorPickup(ctx, PickupInput{OrderID: f.order.ID, VendorID: f.vendorA.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	_, err = f.svc.SetItemCollected(ctx, ItemCollectionInput{OrderID: f.order.ID, ItemID: f.itemsA[0].ID, CourierID: f.courier.ID, Collected: false})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	assert.True(t, findItem(ptr(f.reload(t)), f.itemsA[0].ID).Collected)
}

func ptr(order models.Order) *models.Order { return &order }

func TestMarkPickupCollectedRequiresCollectedItems(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	f.collectAll(t, f.itemsA[0])

	repo := NewRepository(f.db)
	marked, err := repo.MarkPickupCollected(ctx, f.order.ID, f.vendorA.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, marked)
	assert.False(t, findPickup(ptr(f.reload(t)), f.vendorA.ID).Collected)

	f.collectAll(t, f.itemsA[1])
	marked, err = repo.MarkPickupCollected(ctx, f.order.ID, f.vendorA.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, marked)
}

func TestLockOrderNeedsTransaction(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()
	repo := NewRepository(f.db)

	assert.ErrorIs(t, repo.LockOrder(ctx, f.order.ID), errLockOutsideTx)
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).LockOrder(ctx, f.order.ID)
	}))
	err := f.db.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).LockOrder(ctx, uuid.New())
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConfirmPickupLosesRaceWithUncollect(t *testing.T) {
	target := &uuid.UUID{}
	f := newFulfillmentFixture(t, withRepo(func(r Repository) Repository {
		return uncollectingRepo{Repository: r, itemID: target}
	}))
	*target = f.itemsA[1].ID
	ctx := context.Background()
	_, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	f.collectAll(t, f.itemsA...)

	_, err = f.svc.ConfirmVendorPickup(ctx, PickupInput{OrderID: f.order.ID, VendorID: f.vendorA.ID, CourierID: f.courier.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIncompleteCollection), "got %v", err)

	order := f.reload(t)
	assert.False(t, findPickup(&order, f.vendorA.ID).Collected)
	assert.Equal(t, enums.OrderStatusAssigned, order.Status)
}

func TestCompleteDeliveryWrongOTPChangesNothing(t *testing.T) {
	f := newFulfillmentFixture(t)
	f.dispatched(t)

	_, err := f.svc.CompleteDelivery(context.Background(), DeliveryInput{OrderID: f.order.ID, CourierID: f.courier.ID, OTP: "0000"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOTP), "got %v", err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, f.reload(t).Status)
	assert.Equal(t, int64(0), countPostings(t, f.db))
	assert.Equal(t, int64(0), f.events(t, enums.EventOrderDelivered))
}

func TestCompleteDeliveryPostsSettlementAtomically(t *testing.T) {
	f := newFulfillmentFixture(t)
	f.dispatched(t)
	ctx := context.Background()

	result, err := f.svc.CompleteDelivery(ctx, DeliveryInput{OrderID: f.order.ID, CourierID: f.courier.ID, OTP: deliveryCode})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, result.Order.Status)
	assert.NotNil(t, result.Order.DeliveredAt)
	assert.Equal(t, int64(3000), result.CourierPayoutPaise)
	assert.Equal(t, int64(18000), result.VendorEarningPaise)

	courierWallet := walletFor(t, f.db, f.courier.ID)
	require.NotNil(t, courierWallet)
	assert.Equal(t, int64(3000), courierWallet.AvailableBalancePaise)
	assert.Equal(t, int64(3000), courierWallet.LifetimeEarningsPaise)
	var courierPostings []models.WalletTransaction
	require.NoError(t, f.db.Where("wallet_id = ?", courierWallet.ID).Find(&courierPostings).Error)
	require.Len(t, courierPostings, 1)
	assert.Equal(t, enums.WalletTxnKindDeliveryPayout, courierPostings[0].Kind)
	require.NotNil(t, courierPostings[0].OrderID)
	assert.Equal(t, f.order.ID, *courierPostings[0].OrderID)

	vendorWallet := walletFor(t, f.db, f.vendorA.ID)
	require.NotNil(t, vendorWallet)
	assert.Equal(t, int64(0), vendorWallet.AvailableBalancePaise)
	assert.Equal(t, int64(18000), vendorWallet.PendingBalancePaise)
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderDelivered))

	again, err := f.svc.CompleteDelivery(ctx, DeliveryInput{OrderID: f.order.ID, CourierID: f.courier.ID, OTP: deliveryCode})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, again.Order.Status)
	assert.Equal(t, int64(2), countPostings(t, f.db))
	assert.Equal(t, 1, f.otp.calls)
}

func TestCompleteDeliveryRollsBackWhenPayoutFails(t *testing.T) {
	f := newFulfillmentFixture(t, withLedger(func(l settlementLedger) settlementLedger {
		return failingLedger{settlementLedger: l}
	}))
	f.dispatched(t)

	_, err := f.svc.CompleteDelivery(context.Background(), DeliveryInput{OrderID: f.order.ID, CourierID: f.courier.ID, OTP: deliveryCode})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence), "got %v", err)

	order := f.reload(t)
	assert.Equal(t, enums.OrderStatusOutForDelivery, order.Status)
	assert.Nil(t, order.DeliveredAt)
	assert.Nil(t, walletFor(t, f.db, f.courier.ID))
	assert.Equal(t, int64(0), f.events(t, enums.EventOrderDelivered))
}

func TestCompleteDeliveryRequiresDispatch(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)

	_, err = f.svc.CompleteDelivery(ctx, DeliveryInput{OrderID: f.order.ID, CourierID: f.courier.ID, OTP: deliveryCode})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "got %v", err)
	assert.Equal(t, 0, f.otp.calls)

	_, err = f.svc.CompleteDelivery(ctx, DeliveryInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestCancel(t *testing.T) {
	t.Run("customer cancels own unassigned order", func(t *testing.T) {
		f := newFulfillmentFixture(t)
		order, err := f.svc.Cancel(context.Background(), CancelInput{
			OrderID: f.order.ID, ActorUserID: f.customer.ID, ActorRole: enums.UserRoleCustomer, Reason: "changed my mind",
		})
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusCancelled, order.Status)
		assert.NotNil(t, order.CancelledAt)
		assert.Equal(t, int64(1), f.events(t, enums.EventOrderCancelled))

		_, err = f.svc.Cancel(context.Background(), CancelInput{OrderID: f.order.ID, ActorUserID: f.customer.ID, ActorRole: enums.UserRoleCustomer})
		require.NoError(t, err)
		assert.Equal(t, int64(1), f.events(t, enums.EventOrderCancelled))
	})

	t.Run("admin cancels assigned order", func(t *testing.T) {
		f := newFulfillmentFixture(t)
		_, err := f.svc.Accept(context.Background(), AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
		require.NoError(t, err)
		order, err := f.svc.Cancel(context.Background(), CancelInput{OrderID: f.order.ID, ActorUserID: uuid.New(), ActorRole: enums.UserRoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	})

	t.Run("other customer sees not found", func(t *testing.T) {
		f := newFulfillmentFixture(t)
		_, err := f.svc.Cancel(context.Background(), CancelInput{OrderID: f.order.ID, ActorUserID: uuid.New(), ActorRole: enums.UserRoleCustomer})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	})

	t.Run("courier may not cancel", func(t *testing.T) {
		f := newFulfillmentFixture(t)
		_, err := f.svc.Cancel(context.Background(), CancelInput{OrderID: f.order.ID, ActorUserID: f.courier.ID, ActorRole: enums.UserRoleCourier})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
	})

	t.Run("dispatched order cannot be cancelled", func(t *testing.T) {
		f := newFulfillmentFixture(t)
		f.dispatched(t)
		_, err := f.svc.Cancel(context.Background(), CancelInput{OrderID: f.order.ID, ActorUserID: uuid.New(), ActorRole: enums.UserRoleAdmin})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "got %v", err)
		assert.Equal(t, enums.OrderStatusOutForDelivery, f.reload(t).Status)
	})
}

func TestListAvailableAndAssigned(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	pendingGroup := f.group
	pendingGroup.ID = uuid.Nil
	pendingGroup.Orders = nil
	pendingGroup.PaymentMethod = enums.PaymentMethodOnline
	pendingGroup.PaymentStatus = enums.PaymentStatusPending
	testdb.MustCreate(t, f.db, &pendingGroup)
	unpaid := f.order
	unpaid.ID = uuid.Nil
	unpaid.GroupID = pendingGroup.ID
	unpaid.OrderNumber = "ORD-" + uuid.NewString()
	unpaid.Items = nil
	testdb.MustCreate(t, f.db, &unpaid)

	page, err := f.svc.ListAvailable(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, f.order.ID, page.Orders[0].ID)

	_, err = f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)

	page, err = f.svc.ListAvailable(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)

	mine, err := f.svc.ListAssigned(ctx, f.courier.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine.Orders, 1)
	assert.Empty(t, mine.NextCursor)

	_, err = f.svc.ListAvailable(ctx, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetForCourier(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order, err := f.svc.GetForCourier(ctx, f.courier.ID, f.order.ID)
	require.NoError(t, err)
	assert.Len(t, order.Items, 3)

	_, err = f.svc.Accept(ctx, AcceptInput{OrderID: f.order.ID, CourierID: f.courier.ID})
	require.NoError(t, err)
	_, err = f.svc.GetForCourier(ctx, uuid.New(), f.order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetForCourierHidesUnpaidOrders(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Model(&models.OrderGroup{}).Where("id = ?", f.group.ID).
		Updates(map[string]any{"payment_method": enums.PaymentMethodOnline, "payment_status": enums.PaymentStatusPending}).Error)

	_, err := f.svc.GetForCourier(ctx, f.courier.ID, f.order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	require.NoError(t, f.db.Model(&models.OrderGroup{}).Where("id = ?", f.group.ID).
		Update("payment_status", enums.PaymentStatusPaid).Error)
	order, err := f.svc.GetForCourier(ctx, f.courier.ID, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, order.ID)
}
