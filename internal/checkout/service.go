package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/checkout/helpers"
	"github.com/angelmondragon/bazaarlink-backend/internal/coupons"
	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Lines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error)
	ClearTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error
	ConsumeTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, expectedLines int) error
}

type feeEstimator interface {
	Lookup(ctx context.Context, vendorIDs []uuid.UUID, address models.Address) (pricing.FeeLookup, error)
}

type couponResolver interface {
	Discount(ctx context.Context, code string, subtotalPaise, deliveryFeePaise int64) (int64, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service executes checkout orchestration.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	CreateOrderGroup(ctx context.Context, input CreateOrderGroupInput) (uuid.UUID, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.OrderGroup, error)
	GetGroup(ctx context.Context, customerID, groupID uuid.UUID) (*models.OrderGroup, error)
	ExpireStalePayments(ctx context.Context, before time.Time, limit int) (int, error)
	CountFallbackOrders(ctx context.Context, since time.Time) (int64, error)
}

// CheckoutInput is the customer's checkout request.
type CheckoutInput struct {
	CustomerID    uuid.UUID
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	CouponCode    string
}

// CheckoutResult is the persisted group plus how it was priced.
type CheckoutResult struct {
	Group          *models.OrderGroup
	FallbackOrders int
}

// CreateOrderGroupInput is everything needed to persist one checkout.
type CreateOrderGroupInput struct {
	CustomerID    uuid.UUID
	PaymentMethod enums.PaymentMethod
	CouponCode    *string
	Totals        GroupTotals
	Orders        []VendorOrderDraft
	// ClearCart empties the customer's cart in the same transaction.
	ClearCart bool
}

// ConfirmPaymentInput resolves a pending online payment.
type ConfirmPaymentInput struct {
	GroupID     uuid.UUID
	Result      PaymentResult
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// Options carries checkout policy knobs.
type Options struct {
	TaxRate        decimal.Decimal
	Fallback       pricing.FeeQuote
	OnlinePayments bool
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Tx      txRunner
	Repo    Repository
	Cart    cartStore
	Fees    feeEstimator
	Coupons couponResolver
	Gateway PaymentGateway
	Outbox  outboxPublisher
	Metrics *metrics.DomainMetrics
	Logger  *logger.Logger
	Options Options
}

type service struct {
	tx         txRunner
	repo       Repository
	cart       cartStore
	fees       feeEstimator
	coupons    couponResolver
	gateway    PaymentGateway
	outbox     outboxPublisher
	metrics    *metrics.DomainMetrics
	logg       *logger.Logger
	opts       Options
	decomposer *Decomposer
	now        func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee estimator required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	gateway := params.Gateway
	if gateway == nil {
		gateway = DeferredGateway{}
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		cart:       params.Cart,
		fees:       params.Fees,
		coupons:    params.Coupons,
		gateway:    gateway,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		opts:       params.Options,
		decomposer: NewDecomposer(params.Options.Fallback),
		now:        time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	result, err := s.checkout(ctx, input)
	switch {
	case err != nil && pkgerrors.IsCode(err, pkgerrors.CodePaymentFailed):
		s.metrics.IncCheckout(string(enums.PaymentStatusFailed))
	case err != nil:
		s.metrics.IncCheckout("error")
	default:
		s.metrics.IncCheckout(string(result.Group.PaymentStatus))
	}
	return result, err
}

func (s *service) checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if err := helpers.ValidatePaymentMethod(input.PaymentMethod); err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"customer_id": input.CustomerID.String(),
		"address_id":  input.AddressID.String(),
	})

	method := input.PaymentMethod
	if method == enums.PaymentMethodOnline && !s.opts.OnlinePayments {
		s.logg.Info(ctx, "online payments disabled, falling back to cash on delivery")
		method = enums.PaymentMethodCOD
	}

	lines, err := s.cart.Lines(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	address, err := s.loadAddress(ctx, s.repo, input.CustomerID, input.AddressID)
	if err != nil {
		return nil, err
	}
	fees, err := s.fees.Lookup(ctx, helpers.VendorIDs(helpers.GroupCartLinesByVendor(lines)), *address)
	if err != nil {
		return nil, err
	}

	code := coupons.NormalizeCode(input.CouponCode)
	decomposition, err := s.decomposer.Decompose(DecomposeInput{
		AddressID: input.AddressID,
		Lines:     lines,
		Fees:      fees,
		TaxRate:   s.opts.TaxRate,
		Discount: func(subtotalPaise, deliveryFeePaise int64) (int64, error) {
			return s.coupons.Discount(ctx, code, subtotalPaise, deliveryFeePaise)
		},
	})
	if err != nil {
		return nil, err
	}
	for _, draft := range decomposition.Orders {
		if !draft.FeeFallback {
			continue
		}
		s.metrics.IncFallbackFee()
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"vendor_id":    draft.VendorID.String(),
			"order_number": draft.OrderNumber,
			"fee_paise":    draft.DeliveryFeePaise,
		}), "delivery fee estimate missing, using fallback")
	}

	var couponCode *string
	if code != "" {
		couponCode = &code
	}
	groupID, err := s.CreateOrderGroup(ctx, CreateOrderGroupInput{
		CustomerID:    input.CustomerID,
		PaymentMethod: method,
		CouponCode:    couponCode,
		Totals:        decomposition.Totals,
		Orders:        decomposition.Orders,
		ClearCart:     method == enums.PaymentMethodCOD,
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithField(ctx, "order_group_id", groupID.String())

	if method == enums.PaymentMethodOnline {
		if err := s.chargeOnline(ctx, groupID, decomposition.Totals.TotalPaise()); err != nil {
			return nil, err
		}
	}

	group, err := s.repo.FindGroup(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order group")
	}
	s.logg.Info(ctx, "checkout completed")
	return &CheckoutResult{Group: group, FallbackOrders: decomposition.FallbackCount()}, nil
}

// chargeOnline runs the gateway after the group is durable. A gateway error
// leaves the group pending so the rail can confirm it later.
func (s *service) chargeOnline(ctx context.Context, groupID uuid.UUID, amountPaise int64) error {
	result, err := s.gateway.Charge(ctx, groupID, amountPaise)
	if err != nil {
		s.logg.Error(ctx, "payment gateway charge failed, payment left pending", err)
		return nil
	}
	if result == nil {
		return nil
	}
	if _, ok := result.(PaymentPending); ok {
		return nil
	}
	if err := s.applyPaymentResult(ctx, groupID, result, nil); err != nil {
		return err
	}
	if failed, ok := result.(PaymentFailed); ok {
		return pkgerrors.New(pkgerrors.CodePaymentFailed, "payment failed").
			WithDetails(map[string]any{"order_group_id": groupID, "reason": failed.Reason})
	}
	return nil
}

// CreateOrderGroup persists the group, every vendor order and their items in
// one transaction. Either all rows exist afterwards or none do.
func (s *service) CreateOrderGroup(ctx context.Context, input CreateOrderGroupInput) (uuid.UUID, error) {
	if err := validateGroupInput(input); err != nil {
		return uuid.Nil, err
	}

	paymentStatus := enums.PaymentStatusCOD
	if input.PaymentMethod == enums.PaymentMethodOnline {
		paymentStatus = enums.PaymentStatusPending
	}
	addressID := input.Orders[0].AddressID

	var groupID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindCustomer(ctx, input.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load customer")
		}
		if _, err := s.loadAddress(ctx, repo, input.CustomerID, addressID); err != nil {
			return err
		}

		group := &models.OrderGroup{
			CustomerID:       input.CustomerID,
			AddressID:        addressID,
			PaymentMethod:    input.PaymentMethod,
			PaymentStatus:    paymentStatus,
			CouponCode:       input.CouponCode,
			SubtotalPaise:    input.Totals.SubtotalPaise,
			DeliveryFeePaise: input.Totals.DeliveryFeePaise,
			TaxPaise:         input.Totals.TaxPaise,
			DiscountPaise:    input.Totals.DiscountPaise,
			TotalPaise:       input.Totals.TotalPaise(),
		}
		if err := repo.CreateGroup(ctx, group); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create order group")
		}

		orderIDs := make([]uuid.UUID, 0, len(input.Orders))
		fallbacks := 0
		for _, draft := range input.Orders {
			order := buildOrder(group.ID, draft)
			if err := repo.CreateOrder(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create vendor order")
			}
			if err := repo.CreateItems(ctx, buildItems(order.ID, draft.Lines)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create order items")
			}
			orderIDs = append(orderIDs, order.ID)
			if draft.FeeFallback {
				fallbacks++
			}
		}

		if input.ClearCart {
			if err := s.cart.ConsumeTx(ctx, tx, input.CustomerID, countLines(input.Orders)); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderGroupCreated,
			AggregateType: enums.AggregateOrderGroup,
			AggregateID:   group.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderGroupCreatedEvent{
				OrderGroupID:  group.ID,
				CustomerID:    input.CustomerID,
				OrderIDs:      orderIDs,
				PaymentMethod: input.PaymentMethod,
				TotalPaise:    group.TotalPaise,
				FallbackFees:  fallbacks,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "emit order group created")
		}
		groupID = group.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "create order group")
	}
	return groupID, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.OrderGroup, error) {
	if input.GroupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order group id is required")
	}
	if input.Result == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment result is required")
	}
	var actor *outbox.ActorRef
	if input.ActorUserID != uuid.Nil {
		actor = &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.ActorRole)}
	}
	if err := s.applyPaymentResult(ctx, input.GroupID, input.Result, actor); err != nil {
		return nil, err
	}
	group, err := s.repo.FindGroup(ctx, input.GroupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order group")
	}
	return group, nil
}

// applyPaymentResult moves a pending group to the result's status. Repeating
// a transition that already happened is a no-op.
func (s *service) applyPaymentResult(ctx context.Context, groupID uuid.UUID, result PaymentResult, actor *outbox.ActorRef) error {
	target := result.paymentStatus()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		group, err := repo.FindGroup(ctx, groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order group not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order group")
		}
		if group.PaymentStatus == target {
			return nil
		}
		if group.PaymentStatus != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "payment is not pending").
				WithDetails(map[string]any{"payment_status": group.PaymentStatus})
		}

		ok, err := repo.TransitionPayment(ctx, groupID, enums.PaymentStatusPending, target, referenceOf(result))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update payment status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status changed concurrently")
		}

		switch target {
		case enums.PaymentStatusPaid:
			if err := s.cart.ClearTx(ctx, tx, group.CustomerID); err != nil {
				return err
			}
		case enums.PaymentStatusFailed:
			cancelled, err := repo.CancelUnassignedOrders(ctx, groupID, s.now().UTC())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "cancel orders")
			}
			for _, order := range cancelled {
				if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventOrderCancelled,
					AggregateType: enums.AggregateOrder,
					AggregateID:   order.ID,
					Actor:         actor,
					Data: payloads.OrderCancelledEvent{
						OrderID:      order.ID,
						OrderGroupID: groupID,
						OrderNumber:  order.OrderNumber,
						From:         enums.OrderStatusUnassigned,
						Reason:       "payment failed",
					},
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "emit order cancelled")
				}
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentStatusChanged,
			AggregateType: enums.AggregateOrderGroup,
			AggregateID:   groupID,
			Actor:         actor,
			Data: payloads.PaymentStatusChangedEvent{
				OrderGroupID: groupID,
				From:         enums.PaymentStatusPending,
				To:           target,
				Reference:    referenceOf(result),
				Reason:       reasonOf(result),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "emit payment status changed")
		}
		return nil
	})
	return pkgerrors.Ensure(pkgerrors.CodePersistence, err, "apply payment result")
}

func (s *service) GetGroup(ctx context.Context, customerID, groupID uuid.UUID) (*models.OrderGroup, error) {
	group, err := s.repo.FindGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order group")
	}
	if customerID != uuid.Nil && group.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order group not found")
	}
	return group, nil
}

// ExpireStalePayments fails groups whose online payment never resolved.
func (s *service) ExpireStalePayments(ctx context.Context, before time.Time, limit int) (int, error) {
	groups, err := s.repo.ListStalePending(ctx, before, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale pending payments")
	}
	expired := 0
	var errs error
	for _, group := range groups {
		err := s.applyPaymentResult(ctx, group.ID, PaymentFailed{Reason: "payment window expired"}, nil)
		switch {
		case err == nil:
			expired++
		case pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
			// resolved by the rail while we were looking
		default:
			errs = multierr.Append(errs, fmt.Errorf("expire group %s: %w", group.ID, err))
		}
	}
	return expired, errs
}

func (s *service) CountFallbackOrders(ctx context.Context, since time.Time) (int64, error) {
	count, err := s.repo.CountFallbackOrders(ctx, since)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count fallback orders")
	}
	return count, nil
}

func (s *service) loadAddress(ctx context.Context, repo Repository, customerID, addressID uuid.UUID) (*models.Address, error) {
	address, err := repo.FindAddress(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load address")
	}
	if address.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}

func validateGroupInput(input CreateOrderGroupInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if err := helpers.ValidatePaymentMethod(input.PaymentMethod); err != nil {
		return err
	}
	if len(input.Orders) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order group must contain at least one order")
	}
	if err := helpers.ValidateNonNegative(map[string]int64{
		"subtotal":     input.Totals.SubtotalPaise,
		"delivery fee": input.Totals.DeliveryFeePaise,
		"tax":          input.Totals.TaxPaise,
		"discount":     input.Totals.DiscountPaise,
	}); err != nil {
		return err
	}
	if input.Totals.DiscountPaise > input.Totals.SubtotalPaise+input.Totals.DeliveryFeePaise {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order value")
	}

	addressID := input.Orders[0].AddressID
	if addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	numbers := make(map[string]struct{}, len(input.Orders))
	subtotals := make([]int64, 0, len(input.Orders))
	fees := make([]int64, 0, len(input.Orders))
	taxes := make([]int64, 0, len(input.Orders))
	for _, draft := range input.Orders {
		if draft.VendorID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor order is missing its vendor")
		}
		if draft.AddressID != addressID {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor orders must share one delivery address")
		}
		if draft.OrderNumber == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor order is missing its order number")
		}
		if _, dup := numbers[draft.OrderNumber]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate order number "+draft.OrderNumber)
		}
		numbers[draft.OrderNumber] = struct{}{}
		if len(draft.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor order has no lines")
		}
		if err := helpers.ValidateNonNegative(map[string]int64{
			"order delivery fee": draft.DeliveryFeePaise,
			"order tax":          draft.TaxPaise,
		}); err != nil {
			return err
		}
		var lineSum int64
		for _, line := range draft.Lines {
			if line.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
			}
			lineSum += pricing.LineTotal(pricing.Line{
				UnitPricePaise:     line.UnitPricePaise,
				DiscountPricePaise: line.DiscountPricePaise,
				Quantity:           line.Quantity,
			})
		}
		if lineSum != draft.SubtotalPaise {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor order subtotal does not match its lines")
		}
		subtotals = append(subtotals, draft.SubtotalPaise)
		fees = append(fees, draft.DeliveryFeePaise)
		taxes = append(taxes, draft.TaxPaise)
	}
	if err := helpers.ValidateSum("group subtotal", input.Totals.SubtotalPaise, subtotals); err != nil {
		return err
	}
	if err := helpers.ValidateSum("group delivery fee", input.Totals.DeliveryFeePaise, fees); err != nil {
		return err
	}
	return helpers.ValidateSum("group tax", input.Totals.TaxPaise, taxes)
}

func countLines(drafts []VendorOrderDraft) int {
	total := 0
	for _, draft := range drafts {
		total += len(draft.Lines)
	}
	return total
}

func buildOrder(groupID uuid.UUID, draft VendorOrderDraft) *models.Order {
	return &models.Order{
		GroupID:          groupID,
		VendorID:         draft.VendorID,
		AddressID:        draft.AddressID,
		OrderNumber:      draft.OrderNumber,
		Status:           enums.OrderStatusUnassigned,
		SubtotalPaise:    draft.SubtotalPaise,
		DeliveryFeePaise: draft.DeliveryFeePaise,
		DistanceKm:       draft.DistanceKm,
		TaxPaise:         draft.TaxPaise,
		DiscountPaise:    0,
		TotalPaise:       draft.TotalPaise(),
		ItemCount:        draft.ItemCount,
		PayoutPaise:      draft.DeliveryFeePaise,
		FeeFallback:      draft.FeeFallback,
	}
}

func buildItems(orderID uuid.UUID, lines []models.CartLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:            orderID,
			ProductID:          line.ProductID,
			VendorID:           line.VendorID,
			UnitPricePaise:     line.UnitPricePaise,
			DiscountPricePaise: line.DiscountPricePaise,
			Quantity:           line.Quantity,
			LineTotalPaise: pricing.LineTotal(pricing.Line{
				UnitPricePaise:     line.UnitPricePaise,
				DiscountPricePaise: line.DiscountPricePaise,
				Quantity:           line.Quantity,
			}),
		})
	}
	return items
}
