package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/testdb"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

var testConfig = config.OTPConfig{
	Length:           4,
	TTL:              time.Hour,
	AttemptWindow:    time.Minute,
	AttemptLimit:     3,
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type countingLimiter struct {
	counts map[string]int64
	err    error
}

func (l *countingLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	l.counts[scope]++
	return l.counts[scope] <= limit, l.counts[scope], nil
}

type otpFixture struct {
	svc      *service
	db       *gorm.DB
	limiter  *countingLimiter
	customer uuid.UUID
	order    models.Order
}

func newOTPFixture(t *testing.T) *otpFixture {
	t.Helper()
	conn := testdb.Open(t)
	customer := models.Customer{Name: "Meera"}
	testdb.MustCreate(t, conn, &customer)
	address := models.Address{CustomerID: customer.ID, Line1: "4 Park Street"}
	testdb.MustCreate(t, conn, &address)
	group := models.OrderGroup{
		CustomerID:    customer.ID,
		AddressID:     address.ID,
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusCOD,
		SubtotalPaise: 10000,
		TotalPaise:    13000,
	}
	testdb.MustCreate(t, conn, &group)
	order := models.Order{
		GroupID:          group.ID,
		VendorID:         uuid.New(),
		AddressID:        address.ID,
		OrderNumber:      "ORD-OTP-1",
		Status:           enums.OrderStatusOutForDelivery,
		SubtotalPaise:    10000,
		DeliveryFeePaise: 3000,
		TotalPaise:       13000,
		ItemCount:        1,
		PayoutPaise:      3000,
	}
	testdb.MustCreate(t, conn, &order)

	limiter := &countingLimiter{counts: map[string]int64{}}
	svc, err := NewService(NewRepository(conn), limiter, testConfig)
	require.NoError(t, err)
	return &otpFixture{svc: svc.(*service), db: conn, limiter: limiter, customer: customer.ID, order: order}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &countingLimiter{}, testConfig)
	assert.Error(t, err)
	_, err = NewService(NewRepository(nil), nil, testConfig)
	assert.Error(t, err)
	_, err = NewService(NewRepository(nil), &countingLimiter{}, config.OTPConfig{TTL: time.Hour})
	assert.Error(t, err)
}

func TestIssueStoresOnlyHash(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, f.customer, f.order.ID)
	require.NoError(t, err)
	assert.Len(t, issued.Code, 4)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	var stored models.DeliveryOTP
	require.NoError(t, f.db.Where("order_id = ?", f.order.ID).First(&stored).Error)
	assert.NotContains(t, stored.CodeHash, "$"+issued.Code+"$")
	assert.Contains(t, stored.CodeHash, "$argon2id$")

	ok, err := f.svc.Validate(ctx, f.order.ID, issued.Code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateRejectsWrongCode(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, f.customer, f.order.ID)
	require.NoError(t, err)

	wrong := "0000"
	if issued.Code == wrong {
		wrong = "1111"
	}
	ok, err := f.svc.Validate(ctx, f.order.ID, wrong)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.Validate(ctx, f.order.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReissueRotatesCode(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	first, err := f.svc.Issue(ctx, f.customer, f.order.ID)
	require.NoError(t, err)
	var second *IssuedCode
	for i := 0; i < 5; i++ {
		second, err = f.svc.Issue(ctx, f.customer, f.order.ID)
		require.NoError(t, err)
		if second.Code != first.Code {
			break
		}
	}
	require.NotEqual(t, first.Code, second.Code)

	var count int64
	require.NoError(t, f.db.Model(&models.DeliveryOTP{}).Where("order_id = ?", f.order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	ok, err := f.svc.Validate(ctx, f.order.ID, first.Code)
	require.NoError(t, err)
	assert.False(t, ok, "superseded code must not validate")
}

func TestValidateExpiredCode(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, f.customer, f.order.ID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return issued.ExpiresAt.Add(time.Second) }
	ok, err := f.svc.Validate(ctx, f.order.ID, issued.Code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateWithoutIssuedCode(t *testing.T) {
	f := newOTPFixture(t)
	ok, err := f.svc.Validate(context.Background(), f.order.ID, "1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateIsRateLimited(t *testing.T) {
	f := newOTPFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, f.customer, f.order.ID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Validate(ctx, f.order.ID, "9999")
		require.NoError(t, err)
	}

	ok, err := f.svc.Validate(ctx, f.order.ID, issued.Code)
	assert.False(t, ok)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))
}

func TestValidateLimiterUnavailable(t *testing.T) {
	f := newOTPFixture(t)
	f.limiter.err = errors.New("dial tcp: connection refused")

	_, err := f.svc.Validate(context.Background(), f.order.ID, "1234")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestIssueRejectsForeignCustomer(t *testing.T) {
	f := newOTPFixture(t)
	_, err := f.svc.Issue(context.Background(), uuid.New(), f.order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Issue(context.Background(), f.customer, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestIssueRejectsFinishedOrder(t *testing.T) {
	f := newOTPFixture(t)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).Update("status", enums.OrderStatusDelivered).Error)

	_, err := f.svc.Issue(context.Background(), f.customer, f.order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}
