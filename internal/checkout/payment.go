package checkout

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// PaymentResult is the outcome of charging an order group. It is one of
// PaymentSucceeded, PaymentPending or PaymentFailed.
type PaymentResult interface {
	paymentStatus() enums.PaymentStatus
}

// PaymentSucceeded means funds were captured.
type PaymentSucceeded struct {
	Reference string
}

// PaymentPending means the rail accepted the charge but has not settled it.
type PaymentPending struct {
	Reference string
}

// PaymentFailed means the charge was declined or abandoned.
type PaymentFailed struct {
	Reason string
}

func (PaymentSucceeded) paymentStatus() enums.PaymentStatus { return enums.PaymentStatusPaid }
func (PaymentPending) paymentStatus() enums.PaymentStatus   { return enums.PaymentStatusPending }
func (PaymentFailed) paymentStatus() enums.PaymentStatus    { return enums.PaymentStatusFailed }

// PaymentGateway charges an order group through an external rail.
type PaymentGateway interface {
	Charge(ctx context.Context, orderGroupID uuid.UUID, amountPaise int64) (PaymentResult, error)
}

// DeferredGateway leaves every charge pending until the rail calls back
// through ConfirmPayment.
type DeferredGateway struct{}

func (DeferredGateway) Charge(ctx context.Context, orderGroupID uuid.UUID, amountPaise int64) (PaymentResult, error) {
	return PaymentPending{Reference: "pending-" + orderGroupID.String()}, nil
}

func referenceOf(result PaymentResult) *string {
	var ref string
	switch r := result.(type) {
	case PaymentSucceeded:
		ref = r.Reference
	case PaymentPending:
		ref = r.Reference
	}
	if ref == "" {
		return nil
	}
	return &ref
}

func reasonOf(result PaymentResult) *string {
	if failed, ok := result.(PaymentFailed); ok && failed.Reason != "" {
		reason := failed.Reason
		return &reason
	}
	return nil
}
