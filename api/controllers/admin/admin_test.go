package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	admindto "github.com/angelmondragon/bazaarlink-backend/api/controllers/admin/dto"
	ordersdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/orders/dto"
	walletdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/wallet/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/middleware"
	"github.com/angelmondragon/bazaarlink-backend/internal/cashout"
	"github.com/angelmondragon/bazaarlink-backend/internal/checkout"
	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

type stubCashouts struct {
	request    *models.CashoutRequest
	page       *cashout.Page
	err        error
	lastStatus *enums.CashoutStatus
	lastAdmin  cashout.AdminInput
	lastReject cashout.RejectInput
	lastTransf cashout.TransferInput
}

func (s *stubCashouts) Create(ctx context.Context, input cashout.CreateInput) (*models.CashoutRequest, error) {
	return s.request, s.err
}

func (s *stubCashouts) ListForOwner(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType, params pagination.Params) (*cashout.Page, error) {
	return s.page, s.err
}

func (s *stubCashouts) ListForAdmin(ctx context.Context, status *enums.CashoutStatus, params pagination.Params) (*cashout.Page, error) {
	s.lastStatus = status
	return s.page, s.err
}

func (s *stubCashouts) Approve(ctx context.Context, input cashout.AdminInput) (*models.CashoutRequest, error) {
	s.lastAdmin = input
	return s.request, s.err
}

func (s *stubCashouts) Reject(ctx context.Context, input cashout.RejectInput) (*models.CashoutRequest, error) {
	s.lastReject = input
	return s.request, s.err
}

func (s *stubCashouts) MarkTransferred(ctx context.Context, input cashout.TransferInput) (*models.CashoutRequest, error) {
	s.lastTransf = input
	return s.request, s.err
}

func (s *stubCashouts) Complete(ctx context.Context, input cashout.AdminInput) (*models.CashoutRequest, error) {
	s.lastAdmin = input
	return s.request, s.err
}

func (s *stubCashouts) Cancel(ctx context.Context, input cashout.CancelInput) (*models.CashoutRequest, error) {
	return s.request, s.err
}

type stubLedger struct {
	wallet      *models.Wallet
	reconcile   *ledger.ReconcileResult
	err         error
	lastRelease ledger.ReleaseInput
	lastWallet  uuid.UUID
}

func (s *stubLedger) EnsureWalletTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s *stubLedger) PostTx(ctx context.Context, tx *gorm.DB, input ledger.PostingInput) (*models.WalletTransaction, error) {
	return nil, s.err
}

func (s *stubLedger) Post(ctx context.Context, input ledger.PostingInput) (*models.WalletTransaction, error) {
	return nil, s.err
}

func (s *stubLedger) GetWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s *stubLedger) GetWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	s.lastWallet = walletID
	return s.wallet, s.err
}

func (s *stubLedger) ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*ledger.TransactionPage, error) {
	return nil, s.err
}

func (s *stubLedger) ReleasePending(ctx context.Context, input ledger.ReleaseInput) (*models.Wallet, error) {
	s.lastRelease = input
	return s.wallet, s.err
}

func (s *stubLedger) Reconcile(ctx context.Context, walletID uuid.UUID) (*ledger.ReconcileResult, error) {
	return s.reconcile, s.err
}

func (s *stubLedger) ListWalletIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return nil, s.err
}

type stubCheckout struct {
	group       *models.OrderGroup
	err         error
	lastConfirm checkout.ConfirmPaymentInput
}

func (s *stubCheckout) Checkout(ctx context.Context, input checkout.CheckoutInput) (*checkout.CheckoutResult, error) {
	return nil, s.err
}

func (s *stubCheckout) CreateOrderGroup(ctx context.Context, input checkout.CreateOrderGroupInput) (uuid.UUID, error) {
	return uuid.Nil, s.err
}

func (s *stubCheckout) ConfirmPayment(ctx context.Context, input checkout.ConfirmPaymentInput) (*models.OrderGroup, error) {
	s.lastConfirm = input
	return s.group, s.err
}

func (s *stubCheckout) GetGroup(ctx context.Context, customerID, groupID uuid.UUID) (*models.OrderGroup, error) {
	return s.group, s.err
}

func (s *stubCheckout) ExpireStalePayments(ctx context.Context, before time.Time, limit int) (int, error) {
	return 0, s.err
}

func (s *stubCheckout) CountFallbackOrders(ctx context.Context, since time.Time) (int64, error) {
	return 0, s.err
}

func adminRequest(method, target, body string, role enums.UserRole, params map[string]string) (*http.Request, uuid.UUID) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	actorID := uuid.New()
	ctx := middleware.WithUserID(req.Context(), actorID.String())
	ctx = middleware.WithRole(ctx, string(role))
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx), actorID
}

func TestCashoutQueueParsesStatusFilter(t *testing.T) {
	svc := &stubCashouts{page: &cashout.Page{
		Requests:   []models.CashoutRequest{{ID: uuid.New(), Status: enums.CashoutStatusPending, AmountPaise: 5000}},
		NextCursor: "next",
	}}
	handler := CashoutQueue(svc, nil)

	req, _ := adminRequest(http.MethodGet, "/api/v1/admin/cashouts?status=pending", "", enums.UserRoleAdmin, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastStatus == nil || *svc.lastStatus != enums.CashoutStatusPending {
		t.Fatalf("expected pending filter got %v", svc.lastStatus)
	}
	var envelope struct {
		Data walletdto.CashoutPage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Requests) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestCashoutQueueRejectsUnknownStatus(t *testing.T) {
	handler := CashoutQueue(&stubCashouts{}, nil)

	req, _ := adminRequest(http.MethodGet, "/api/v1/admin/cashouts?status=lost", "", enums.UserRoleAdmin, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCashoutActionsRequireAdmin(t *testing.T) {
	handler := CashoutApprove(&stubCashouts{}, nil)

	req, _ := adminRequest(http.MethodPost, "/", "", enums.UserRoleVendor, map[string]string{"cashoutId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCashoutApprovePassesActor(t *testing.T) {
	cashoutID := uuid.New()
	svc := &stubCashouts{request: &models.CashoutRequest{ID: cashoutID, Status: enums.CashoutStatusApproved}}
	handler := CashoutApprove(svc, nil)

	req, adminID := adminRequest(http.MethodPost, "/", "", enums.UserRoleAdmin, map[string]string{"cashoutId": cashoutID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastAdmin.CashoutID != cashoutID || svc.lastAdmin.ActorUserID != adminID {
		t.Fatalf("unexpected admin input %+v", svc.lastAdmin)
	}
}

func TestCashoutApproveInvalidTransition(t *testing.T) {
	svc := &stubCashouts{err: pkgerrors.New(pkgerrors.CodeInvalidTransition, "cashout cannot move from completed to approved")}
	handler := CashoutApprove(svc, nil)

	req, _ := adminRequest(http.MethodPost, "/", "", enums.UserRoleAdmin, map[string]string{"cashoutId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCashoutRejectRequiresReason(t *testing.T) {
	svc := &stubCashouts{}
	handler := CashoutReject(svc, nil)

	req, _ := adminRequest(http.MethodPost, "/", `{}`, enums.UserRoleAdmin, map[string]string{"cashoutId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastReject.CashoutID != uuid.Nil {
		t.Fatalf("service should not be called on invalid body")
	}
}

func TestCashoutTransferRecordsReference(t *testing.T) {
	cashoutID := uuid.New()
	svc := &stubCashouts{request: &models.CashoutRequest{ID: cashoutID, Status: enums.CashoutStatusTransferred}}
	handler := CashoutTransfer(svc, nil)

	req, _ := adminRequest(http.MethodPost, "/", `{"reference":"  NEFT-1234  "}`, enums.UserRoleAdmin, map[string]string{"cashoutId": cashoutID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastTransf.Reference != "NEFT-1234" {
		t.Fatalf("expected trimmed reference got %q", svc.lastTransf.Reference)
	}
}

func TestCashoutActionRejectsBadID(t *testing.T) {
	handler := CashoutComplete(&stubCashouts{}, nil)

	req, _ := adminRequest(http.MethodPost, "/", "", enums.UserRoleAdmin, map[string]string{"cashoutId": "nope"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestWalletDetail(t *testing.T) {
	walletID := uuid.New()
	svc := &stubLedger{wallet: &models.Wallet{ID: walletID, PendingBalancePaise: 2500}}
	handler := WalletDetail(svc, nil)

	req, _ := adminRequest(http.MethodGet, "/", "", enums.UserRoleAdmin, map[string]string{"walletId": walletID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastWallet != walletID {
		t.Fatalf("expected lookup of %s got %s", walletID, svc.lastWallet)
	}
	var envelope struct {
		Data walletdto.Wallet `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PendingBalancePaise != 2500 {
		t.Fatalf("unexpected wallet %+v", envelope.Data)
	}
}

func TestWalletDetailNotFound(t *testing.T) {
	handler := WalletDetail(&stubLedger{err: pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")}, nil)

	req, _ := adminRequest(http.MethodGet, "/", "", enums.UserRoleAdmin, map[string]string{"walletId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestWalletRelease(t *testing.T) {
	walletID := uuid.New()
	svc := &stubLedger{wallet: &models.Wallet{ID: walletID, AvailableBalancePaise: 4000, PendingBalancePaise: 1000}}
	handler := WalletRelease(svc, nil)

	req, adminID := adminRequest(http.MethodPost, "/", `{"amountPaise":4000}`, enums.UserRoleAdmin, map[string]string{"walletId": walletID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastRelease.WalletID != walletID || svc.lastRelease.AmountPaise != 4000 || svc.lastRelease.ActorUserID != adminID {
		t.Fatalf("unexpected release input %+v", svc.lastRelease)
	}
	var envelope struct {
		Data walletdto.Wallet `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AvailableBalancePaise != 4000 {
		t.Fatalf("unexpected wallet %+v", envelope.Data)
	}
}

func TestWalletReleaseRejectsNonPositiveAmount(t *testing.T) {
	handler := WalletRelease(&stubLedger{}, nil)

	req, _ := adminRequest(http.MethodPost, "/", `{"amountPaise":0}`, enums.UserRoleAdmin, map[string]string{"walletId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestWalletReconcileReportsDrift(t *testing.T) {
	walletID := uuid.New()
	svc := &stubLedger{reconcile: &ledger.ReconcileResult{
		WalletID:     walletID,
		Materialized: ledger.Balances{AvailablePaise: 500},
		Folded:       ledger.Balances{AvailablePaise: 400},
	}}
	handler := WalletReconcile(svc, nil)

	req, _ := adminRequest(http.MethodGet, "/", "", enums.UserRoleAdmin, map[string]string{"walletId": walletID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data admindto.ReconcileResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Drifted || envelope.Data.Materialized.AvailablePaise != 500 || envelope.Data.Folded.AvailablePaise != 400 {
		t.Fatalf("unexpected reconcile response %+v", envelope.Data)
	}
}

func TestConfirmPaymentMapsStatus(t *testing.T) {
	cases := []struct {
		name string
		body string
		want checkout.PaymentResult
	}{
		{name: "paid", body: `{"status":"paid","reference":"pay_1"}`, want: checkout.PaymentSucceeded{Reference: "pay_1"}},
		{name: "pending", body: `{"status":"pending","reference":"pay_2"}`, want: checkout.PaymentPending{Reference: "pay_2"}},
		{name: "failed", body: `{"status":"failed","reason":"card declined"}`, want: checkout.PaymentFailed{Reason: "card declined"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			groupID := uuid.New()
			svc := &stubCheckout{group: &models.OrderGroup{ID: groupID, PaymentStatus: enums.PaymentStatusPaid}}
			handler := ConfirmPayment(svc, nil)

			req, adminID := adminRequest(http.MethodPost, "/", tc.body, enums.UserRoleAdmin, map[string]string{"groupId": groupID.String()})
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", resp.Code)
			}
			if svc.lastConfirm.Result != tc.want {
				t.Fatalf("expected result %#v got %#v", tc.want, svc.lastConfirm.Result)
			}
			if svc.lastConfirm.GroupID != groupID || svc.lastConfirm.ActorUserID != adminID || svc.lastConfirm.ActorRole != enums.UserRoleAdmin {
				t.Fatalf("unexpected confirm input %+v", svc.lastConfirm)
			}
			var envelope struct {
				Data ordersdto.OrderGroup `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if envelope.Data.ID != groupID {
				t.Fatalf("unexpected group %+v", envelope.Data)
			}
		})
	}
}

func TestConfirmPaymentRejectsCODStatus(t *testing.T) {
	handler := ConfirmPayment(&stubCheckout{}, nil)

	req, _ := adminRequest(http.MethodPost, "/", `{"status":"cod"}`, enums.UserRoleAdmin, map[string]string{"groupId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
