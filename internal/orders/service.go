package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type settlementLedger interface {
	EnsureWalletTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
	PostTx(ctx context.Context, tx *gorm.DB, input ledger.PostingInput) (*models.WalletTransaction, error)
}

type otpValidator interface {
	Validate(ctx context.Context, orderID uuid.UUID, code string) (bool, error)
}

type courierGate interface {
	RequireVerified(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) error
}

// Service drives an order from courier assignment to delivery.
type Service interface {
	GetForCourier(ctx context.Context, courierID, orderID uuid.UUID) (*models.Order, error)
	ListAvailable(ctx context.Context, params pagination.Params) (*OrderPage, error)
	ListAssigned(ctx context.Context, courierID uuid.UUID, params pagination.Params) (*OrderPage, error)
	Accept(ctx context.Context, input AcceptInput) (*models.Order, error)
	SetItemCollected(ctx context.Context, input ItemCollectionInput) (*models.Order, error)
	ConfirmVendorPickup(ctx context.Context, input PickupInput) (*models.Order, error)
	MarkOutForDelivery(ctx context.Context, input CourierActionInput) (*models.Order, error)
	CompleteDelivery(ctx context.Context, input DeliveryInput) (*DeliveryResult, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
}

// ServiceParams groups the collaborators of the fulfillment service.
type ServiceParams struct {
	Tx             txRunner
	Repo           Repository
	Ledger         settlementLedger
	OTP            otpValidator
	Verifier       courierGate
	Outbox         outboxPublisher
	Metrics        *metrics.DomainMetrics
	Logger         *logger.Logger
	CommissionRate decimal.Decimal
}

type service struct {
	tx         txRunner
	repo       Repository
	ledger     settlementLedger
	otp        otpValidator
	verifier   courierGate
	outbox     outboxPublisher
	metrics    *metrics.DomainMetrics
	logg       *logger.Logger
	commission decimal.Decimal
	now        func() time.Time
}

// NewService builds the fulfillment service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.OTP == nil {
		return nil, fmt.Errorf("otp validator required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("verification gate required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.CommissionRate.IsNegative() || params.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate must be between 0 and 1")
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		ledger:     params.Ledger,
		otp:        params.OTP,
		verifier:   params.Verifier,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		commission: params.CommissionRate,
		now:        time.Now,
	}, nil
}

func (s *service) GetForCourier(ctx context.Context, courierID, orderID uuid.UUID) (*models.Order, error) {
	if courierID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier and order ids are required")
	}
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if ownedBy(order, courierID) {
		return order, nil
	}
	if order.Status != enums.OrderStatusUnassigned {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	group, err := s.repo.FindGroup(ctx, order.GroupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order group")
	}
	if !group.PaymentStatus.AllowsDispatch() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListAvailable(ctx context.Context, params pagination.Params) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListAvailable(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list available orders")
	}
	return newOrderPage(rows, params.Limit), nil
}

func (s *service) ListAssigned(ctx context.Context, courierID uuid.UUID, params pagination.Params) (*OrderPage, error) {
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListForCourier(ctx, courierID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list courier orders")
	}
	return newOrderPage(rows, params.Limit), nil
}

func newOrderPage(rows []models.Order, limit int) *OrderPage {
	page, next := pagination.Page(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &OrderPage{Orders: page, NextCursor: next}
}

func (s *service) Accept(ctx context.Context, input AcceptInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier and order ids are required")
	}
	if err := s.verifier.RequireVerified(ctx, enums.WalletOwnerTypeCourier, input.CourierID); err != nil {
		return nil, err
	}

	var (
		result  *models.Order
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusUnassigned {
			if ownedBy(order, input.CourierID) && order.Status != enums.OrderStatusCancelled {
				result = order
				return nil
			}
			return acceptConflict(order)
		}

		group, err := repo.FindGroup(ctx, order.GroupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order group")
		}
		if !group.PaymentStatus.AllowsDispatch() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order group payment is not settled").
				WithDetails(map[string]any{"payment_status": group.PaymentStatus})
		}

		now := s.now().UTC()
		applied, err := repo.Assign(ctx, order.ID, input.CourierID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "assign order")
		}
		if !applied {
			current, err := s.loadOrder(ctx, repo, order.ID)
			if err != nil {
				return err
			}
			if ownedBy(current, input.CourierID) {
				result = current
				return nil
			}
			return acceptConflict(current)
		}

		if err := repo.CreatePickups(ctx, pickupsFor(order)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create vendor pickups")
		}
		order, err = s.loadOrder(ctx, repo, order.ID)
		if err != nil {
			return err
		}
		if err := s.emitStatus(ctx, tx, order, enums.EventOrderAssigned, input.CourierID, enums.UserRoleCourier); err != nil {
			return err
		}
		result = order
		changed = true
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update order")
	}
	if changed {
		s.metrics.IncOrderTransition(string(enums.OrderStatusAssigned))
		s.logg.Info(s.orderCtx(ctx, result), "order assigned")
	}
	return result, nil
}

func acceptConflict(order *models.Order) error {
	if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusDelivered {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("order is %s", order.Status)).
			WithDetails(map[string]any{"status": order.Status})
	}
	return pkgerrors.New(pkgerrors.CodeAlreadyAssigned, "order already assigned to another courier")
}

// pickupsFor creates one leg per distinct item vendor in item order.
func pickupsFor(order *models.Order) []models.VendorPickup {
	seen := make(map[uuid.UUID]struct{}, len(order.Items))
	pickups := make([]models.VendorPickup, 0, len(order.Items))
	for _, item := range order.Items {
		vendorID := item.VendorID
		if vendorID == uuid.Nil {
			vendorID = order.VendorID
		}
		if _, ok := seen[vendorID]; ok {
			continue
		}
		seen[vendorID] = struct{}{}
		pickups = append(pickups, models.VendorPickup{OrderID: order.ID, VendorID: vendorID})
	}
	return pickups
}

func (s *service) SetItemCollected(ctx context.Context, input ItemCollectionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.ItemID == uuid.Nil || input.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order, item and courier ids are required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.lockOrder(ctx, repo, input.OrderID); err != nil {
			return err
		}
		order, err := s.loadCourierOrder(ctx, repo, input.OrderID, input.CourierID)
		if err != nil {
			return err
		}
		item := findItem(order, input.ItemID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		if item.Collected == input.Collected {
			result = order
			return nil
		}
		if order.Status != enums.OrderStatusAssigned {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("items cannot change once the order is %s", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}
		if pickup := findPickup(order, item.VendorID); pickup != nil && pickup.Collected {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "vendor pickup already confirmed").
				WithDetails(map[string]any{"vendor_id": item.VendorID})
		}

		var at *time.Time
		if input.Collected {
			now := s.now().UTC()
			at = &now
		}
		if _, err := repo.SetItemCollected(ctx, order.ID, item.ID, input.Collected, at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update item collection")
		}
		result, err = s.loadOrder(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update order")
	}
	return result, nil
}

func (s *service) ConfirmVendorPickup(ctx context.Context, input PickupInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.VendorID == uuid.Nil || input.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order, vendor and courier ids are required")
	}

	var (
		result   *models.Order
		advanced bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.lockOrder(ctx, repo, input.OrderID); err != nil {
			return err
		}
		order, err := s.loadCourierOrder(ctx, repo, input.OrderID, input.CourierID)
		if err != nil {
			return err
		}
		pickup := findPickup(order, input.VendorID)
		if pickup == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor is not part of this order")
		}
		if pickup.Collected {
			result = order
			return nil
		}
		if order.Status != enums.OrderStatusAssigned {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("pickup cannot be confirmed while order is %s", order.Status))
		}
		if missing := uncollectedItems(order, input.VendorID); len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeIncompleteCollection, "vendor leg has uncollected items").
				WithDetails(PendingLeg{VendorID: input.VendorID, UncollectedItems: missing})
		}

		now := s.now().UTC()
		marked, err := repo.MarkPickupCollected(ctx, order.ID, input.VendorID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "confirm vendor pickup")
		}
		order, err = s.loadOrder(ctx, repo, order.ID)
		if err != nil {
			return err
		}
		if !marked {
			if leg := findPickup(order, input.VendorID); leg != nil && leg.Collected {
				result = order
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeIncompleteCollection, "vendor leg has uncollected items").
				WithDetails(PendingLeg{VendorID: input.VendorID, UncollectedItems: uncollectedItems(order, input.VendorID)})
		}
		if len(pendingLegs(order)) == 0 {
			if order, err = s.dispatch(ctx, tx, repo, order, input.CourierID); err != nil {
				return err
			}
			advanced = true
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update order")
	}
	if advanced {
		s.recordDispatch(ctx, result)
	}
	return result, nil
}

func (s *service) MarkOutForDelivery(ctx context.Context, input CourierActionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and courier ids are required")
	}

	var (
		result   *models.Order
		advanced bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadCourierOrder(ctx, repo, input.OrderID, input.CourierID)
		if err != nil {
			return err
		}
		switch order.Status {
		case enums.OrderStatusOutForDelivery:
			result = order
			return nil
		case enums.OrderStatusAssigned, enums.OrderStatusPickedUp:
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("order is %s", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}
		if pending := pendingLegs(order); len(pending) > 0 {
			return pkgerrors.New(pkgerrors.CodeIncompleteCollection, "every vendor leg must be collected first").
				WithDetails(map[string]any{"pending_legs": pending})
		}
		if result, err = s.dispatch(ctx, tx, repo, order, input.CourierID); err != nil {
			return err
		}
		advanced = true
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update order")
	}
	if advanced {
		s.recordDispatch(ctx, result)
	}
	return result, nil
}

// dispatch walks a fully collected order through picked_up to out_for_delivery.
func (s *service) dispatch(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, courierID uuid.UUID) (*models.Order, error) {
	now := s.now().UTC()
	if order.Status == enums.OrderStatusAssigned {
		if err := s.transition(ctx, repo, order.ID, enums.OrderStatusAssigned, enums.OrderStatusPickedUp, now); err != nil {
			return nil, err
		}
	}
	if err := s.transition(ctx, repo, order.ID, enums.OrderStatusPickedUp, enums.OrderStatusOutForDelivery, now); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, repo, order.ID)
	if err != nil {
		return nil, err
	}
	if err := s.emitStatus(ctx, tx, order, enums.EventOrderOutForDelivery, courierID, enums.UserRoleCourier); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) recordDispatch(ctx context.Context, order *models.Order) {
	s.metrics.IncOrderTransition(string(enums.OrderStatusPickedUp))
	s.metrics.IncOrderTransition(string(enums.OrderStatusOutForDelivery))
	s.logg.Info(s.orderCtx(ctx, order), "order out for delivery")
}

func (s *service) CompleteDelivery(ctx context.Context, input DeliveryInput) (*DeliveryResult, error) {
	if input.OrderID == uuid.Nil || input.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and courier ids are required")
	}
	if input.OTP == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "otp is required")
	}

	order, err := s.loadCourierOrder(ctx, s.repo, input.OrderID, input.CourierID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusDelivered {
		return s.deliveredResult(order), nil
	}
	if order.Status != enums.OrderStatusOutForDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("order is %s", order.Status)).
			WithDetails(map[string]any{"status": order.Status})
	}

	ok, err := s.otp.Validate(ctx, order.ID, input.OTP)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logg.Warn(s.orderCtx(ctx, order), "delivery otp rejected")
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOTP, "delivery code is invalid or expired")
	}

	var (
		result  *DeliveryResult
		changed bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now().UTC()
		applied, err := repo.Transition(ctx, order.ID, enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark order delivered")
		}
		current, err := s.loadOrder(ctx, repo, order.ID)
		if err != nil {
			return err
		}
		if !applied {
			if current.Status == enums.OrderStatusDelivered && ownedBy(current, input.CourierID) {
				result = s.deliveredResult(current)
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed during delivery")
		}

		result = s.deliveredResult(current)
		if err := s.settle(ctx, tx, current, input.CourierID, result); err != nil {
			return err
		}
		changed = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDelivered,
			AggregateType: enums.AggregateOrder,
			AggregateID:   current.ID,
			Actor:         &outbox.ActorRef{UserID: input.CourierID, Role: string(enums.UserRoleCourier)},
			Data: payloads.OrderDeliveredEvent{
				OrderID:            current.ID,
				OrderGroupID:       current.GroupID,
				OrderNumber:        current.OrderNumber,
				CourierID:          input.CourierID,
				VendorID:           current.VendorID,
				CourierPayoutPaise: result.CourierPayoutPaise,
				VendorEarningPaise: result.VendorEarningPaise,
				DeliveredAt:        now,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update order")
	}
	if changed {
		s.metrics.IncOrderTransition(string(enums.OrderStatusDelivered))
		s.logg.Info(s.logg.WithFields(s.orderCtx(ctx, result.Order), map[string]any{
			"courier_payout_paise": result.CourierPayoutPaise,
			"vendor_earning_paise": result.VendorEarningPaise,
		}), "order delivered")
	}
	return result, nil
}

func (s *service) deliveredResult(order *models.Order) *DeliveryResult {
	return &DeliveryResult{
		Order:              order,
		CourierPayoutPaise: order.PayoutPaise,
		VendorEarningPaise: pricing.VendorEarning(order.SubtotalPaise, s.commission),
	}
}

// settle posts the courier payout and the held vendor earning inside the
// delivery transaction.
func (s *service) settle(ctx context.Context, tx *gorm.DB, order *models.Order, courierID uuid.UUID, result *DeliveryResult) error {
	orderID := order.ID
	if result.CourierPayoutPaise > 0 {
		wallet, err := s.ledger.EnsureWalletTx(ctx, tx, courierID, enums.WalletOwnerTypeCourier)
		if err != nil {
			return err
		}
		if _, err := s.ledger.PostTx(ctx, tx, ledger.PostingInput{
			WalletID:    wallet.ID,
			Type:        enums.WalletTxnTypeCredit,
			Bucket:      enums.WalletBucketAvailable,
			Kind:        enums.WalletTxnKindDeliveryPayout,
			AmountPaise: result.CourierPayoutPaise,
			Description: fmt.Sprintf("Delivery payout for %s", order.OrderNumber),
			OrderID:     &orderID,
		}); err != nil {
			return err
		}
	}
	if result.VendorEarningPaise > 0 {
		wallet, err := s.ledger.EnsureWalletTx(ctx, tx, order.VendorID, enums.WalletOwnerTypeVendor)
		if err != nil {
			return err
		}
		if _, err := s.ledger.PostTx(ctx, tx, ledger.PostingInput{
			WalletID:    wallet.ID,
			Type:        enums.WalletTxnTypeCredit,
			Bucket:      enums.WalletBucketPending,
			Kind:        enums.WalletTxnKindVendorEarning,
			AmountPaise: result.VendorEarningPaise,
			Description: fmt.Sprintf("Earning for %s", order.OrderNumber),
			OrderID:     &orderID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and actor ids are required")
	}
	if input.ActorRole != enums.UserRoleAdmin && input.ActorRole != enums.UserRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers and admins may cancel orders")
	}

	var (
		result  *models.Order
		changed bool
		from    enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if input.ActorRole == enums.UserRoleCustomer {
			group, err := repo.FindGroup(ctx, order.GroupID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order group")
			}
			if group.CustomerID != input.ActorUserID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
		}
		if order.Status == enums.OrderStatusCancelled {
			result = order
			return nil
		}
		if !order.Status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("order cannot be cancelled once %s", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		from = order.Status
		if err := s.transition(ctx, repo, order.ID, from, enums.OrderStatusCancelled, s.now().UTC()); err != nil {
			return err
		}
		if order, err = s.loadOrder(ctx, repo, order.ID); err != nil {
			return err
		}
		result = order
		changed = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.ActorRole)},
			Data: payloads.OrderCancelledEvent{
				OrderID:      order.ID,
				OrderGroupID: order.GroupID,
				OrderNumber:  order.OrderNumber,
				From:         from,
				Reason:       input.Reason,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update order")
	}
	if changed {
		s.metrics.IncOrderTransition(string(enums.OrderStatusCancelled))
		s.logg.Info(s.logg.WithField(s.orderCtx(ctx, result), "from", from), "order cancelled")
	}
	return result, nil
}

func (s *service) transition(ctx context.Context, repo Repository, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) error {
	applied, err := repo.Transition(ctx, orderID, from, to, at)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, fmt.Sprintf("move order to %s", to))
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is no longer %s", from))
	}
	return nil
}

func (s *service) emitStatus(ctx context.Context, tx *gorm.DB, order *models.Order, eventType enums.OutboxEventType, actorID uuid.UUID, role enums.UserRole) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(role)},
		Data: payloads.OrderStatusEvent{
			OrderID:      order.ID,
			OrderGroupID: order.GroupID,
			OrderNumber:  order.OrderNumber,
			VendorID:     order.VendorID,
			CourierID:    order.CourierID,
			Status:       order.Status,
			OccurredAt:   s.now().UTC(),
		},
	})
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order")
	}
	return order, nil
}

func (s *service) lockOrder(ctx context.Context, repo Repository, orderID uuid.UUID) error {
	if err := repo.LockOrder(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "lock order")
	}
	return nil
}

func (s *service) loadCourierOrder(ctx context.Context, repo Repository, orderID, courierID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, repo, orderID)
	if err != nil {
		return nil, err
	}
	if !ownedBy(order, courierID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this courier")
	}
	return order, nil
}

func (s *service) orderCtx(ctx context.Context, order *models.Order) context.Context {
	fields := map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	}
	if order.CourierID != nil {
		fields["courier_id"] = *order.CourierID
	}
	return s.logg.WithFields(ctx, fields)
}

func ownedBy(order *models.Order, courierID uuid.UUID) bool {
	return order.CourierID != nil && *order.CourierID == courierID
}

func findItem(order *models.Order, itemID uuid.UUID) *models.OrderItem {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return &order.Items[i]
		}
	}
	return nil
}

func findPickup(order *models.Order, vendorID uuid.UUID) *models.VendorPickup {
	for i := range order.Pickups {
		if order.Pickups[i].VendorID == vendorID {
			return &order.Pickups[i]
		}
	}
	return nil
}

func uncollectedItems(order *models.Order, vendorID uuid.UUID) []uuid.UUID {
	var missing []uuid.UUID
	for _, item := range order.Items {
		if item.VendorID == vendorID && !item.Collected {
			missing = append(missing, item.ID)
		}
	}
	return missing
}

// pendingLegs lists vendor legs whose pickup is not confirmed yet.
func pendingLegs(order *models.Order) []PendingLeg {
	var pending []PendingLeg
	for _, pickup := range order.Pickups {
		if pickup.Collected {
			continue
		}
		pending = append(pending, PendingLeg{VendorID: pickup.VendorID, UncollectedItems: uncollectedItems(order, pickup.VendorID)})
	}
	return pending
}
