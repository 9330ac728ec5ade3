package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	walletdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/wallet/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/middleware"
	"github.com/angelmondragon/bazaarlink-backend/internal/cashout"
	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

type stubLedger struct {
	wallet        *models.Wallet
	page          *ledger.TransactionPage
	err           error
	lastOwner     uuid.UUID
	lastOwnerType enums.WalletOwnerType
	lastWalletID  uuid.UUID
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
	s.lastOwner = ownerID
	s.lastOwnerType = ownerType
	return s.wallet, s.err
}

func (s *stubLedger) GetWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s *stubLedger) ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*ledger.TransactionPage, error) {
	s.lastWalletID = walletID
	return s.page, s.err
}

func (s *stubLedger) ReleasePending(ctx context.Context, input ledger.ReleaseInput) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s *stubLedger) Reconcile(ctx context.Context, walletID uuid.UUID) (*ledger.ReconcileResult, error) {
	return nil, s.err
}

func (s *stubLedger) ListWalletIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return nil, s.err
}

type stubCashouts struct {
	request    *models.CashoutRequest
	page       *cashout.Page
	err        error
	lastCreate cashout.CreateInput
	lastCancel cashout.CancelInput
}

func (s *stubCashouts) Create(ctx context.Context, input cashout.CreateInput) (*models.CashoutRequest, error) {
	s.lastCreate = input
	return s.request, s.err
}

func (s *stubCashouts) ListForOwner(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType, params pagination.Params) (*cashout.Page, error) {
	return s.page, s.err
}

func (s *stubCashouts) ListForAdmin(ctx context.Context, status *enums.CashoutStatus, params pagination.Params) (*cashout.Page, error) {
	return s.page, s.err
}

func (s *stubCashouts) Approve(ctx context.Context, input cashout.AdminInput) (*models.CashoutRequest, error) {
	return s.request, s.err
}

func (s *stubCashouts) Reject(ctx context.Context, input cashout.RejectInput) (*models.CashoutRequest, error) {
	return s.request, s.err
}

func (s *stubCashouts) MarkTransferred(ctx context.Context, input cashout.TransferInput) (*models.CashoutRequest, error) {
	return s.request, s.err
}

func (s *stubCashouts) Complete(ctx context.Context, input cashout.AdminInput) (*models.CashoutRequest, error) {
	return s.request, s.err
}

func (s *stubCashouts) Cancel(ctx context.Context, input cashout.CancelInput) (*models.CashoutRequest, error) {
	s.lastCancel = input
	return s.request, s.err
}

func withActor(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func TestWalletFetchMapsRoleToOwnerType(t *testing.T) {
	courierID := uuid.New()
	wallet := &models.Wallet{ID: uuid.New(), OwnerID: courierID, OwnerType: enums.WalletOwnerTypeCourier, AvailableBalancePaise: 3000}
	svc := &stubLedger{wallet: wallet}
	handler := WalletFetch(svc, nil)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil), courierID, enums.UserRoleCourier)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastOwner != courierID || svc.lastOwnerType != enums.WalletOwnerTypeCourier {
		t.Fatalf("unexpected owner lookup %s/%s", svc.lastOwner, svc.lastOwnerType)
	}
	var envelope struct {
		Data walletdto.Wallet `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AvailableBalancePaise != 3000 {
		t.Fatalf("unexpected balance %d", envelope.Data.AvailableBalancePaise)
	}
}

func TestWalletFetchRejectsCustomers(t *testing.T) {
	handler := WalletFetch(&stubLedger{}, nil)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil), uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestWalletTransactionsUsesCallerWallet(t *testing.T) {
	vendorID := uuid.New()
	wallet := &models.Wallet{ID: uuid.New(), OwnerID: vendorID, OwnerType: enums.WalletOwnerTypeVendor}
	svc := &stubLedger{
		wallet: wallet,
		page: &ledger.TransactionPage{
			Transactions: []models.WalletTransaction{
				{ID: uuid.New(), WalletID: wallet.ID, Type: enums.WalletTxnTypeCredit, Bucket: enums.WalletBucketPending, AmountPaise: 2000},
			},
			NextCursor: "cursor-2",
		},
	}
	handler := WalletTransactions(svc, nil)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/transactions?limit=10", nil), vendorID, enums.UserRoleVendor)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastWalletID != wallet.ID {
		t.Fatalf("expected postings of wallet %s got %s", wallet.ID, svc.lastWalletID)
	}
	var envelope struct {
		Data walletdto.TransactionPage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Transactions) != 1 || envelope.Data.NextCursor != "cursor-2" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestCashoutCreate(t *testing.T) {
	vendorID := uuid.New()
	bankID := uuid.New()
	request := &models.CashoutRequest{ID: uuid.New(), BankAccountID: bankID, AmountPaise: 150000, Status: enums.CashoutStatusPending, RequestedBy: vendorID}
	svc := &stubCashouts{request: request}
	handler := CashoutCreate(svc, nil)

	body := fmt.Sprintf(`{"bankAccountId":"%s","amountPaise":150000}`, bankID)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/cashouts", strings.NewReader(body)), vendorID, enums.UserRoleVendor)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastCreate.OwnerID != vendorID || svc.lastCreate.OwnerType != enums.WalletOwnerTypeVendor || svc.lastCreate.AmountPaise != 150000 {
		t.Fatalf("unexpected create input %+v", svc.lastCreate)
	}
}

func TestCashoutCreateDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		code pkgerrors.Code
	}{
		{"below minimum", pkgerrors.CodeBelowMinimum},
		{"insufficient balance", pkgerrors.CodeInsufficientBalance},
		{"unverified bank", pkgerrors.CodeUnverifiedBankAccount},
		{"owner not verified", pkgerrors.CodeNotVerified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := CashoutCreate(&stubCashouts{err: pkgerrors.New(tc.code, tc.name)}, nil)
			body := fmt.Sprintf(`{"bankAccountId":"%s","amountPaise":500}`, uuid.New())
			req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/cashouts", strings.NewReader(body)), uuid.New(), enums.UserRoleCourier)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			if want := pkgerrors.MetadataFor(tc.code).HTTPStatus; resp.Code != want {
				t.Fatalf("expected %d got %d", want, resp.Code)
			}
		})
	}
}

func TestCashoutCreateRejectsNonPositiveAmount(t *testing.T) {
	handler := CashoutCreate(&stubCashouts{}, nil)
	body := fmt.Sprintf(`{"bankAccountId":"%s","amountPaise":-5}`, uuid.New())
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/cashouts", strings.NewReader(body)), uuid.New(), enums.UserRoleVendor)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCashoutCancel(t *testing.T) {
	vendorID := uuid.New()
	cashoutID := uuid.New()
	svc := &stubCashouts{request: &models.CashoutRequest{ID: cashoutID, Status: enums.CashoutStatusCancelled}}
	handler := CashoutCancel(svc, nil)

	req := withActor(httptest.NewRequest(http.MethodPost, "/", nil), vendorID, enums.UserRoleVendor)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("cashoutId", cashoutID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastCancel.CashoutID != cashoutID || svc.lastCancel.ActorUserID != vendorID || svc.lastCancel.ActorRole != enums.UserRoleVendor {
		t.Fatalf("unexpected cancel input %+v", svc.lastCancel)
	}
}

func TestCashoutList(t *testing.T) {
	svc := &stubCashouts{page: &cashout.Page{Requests: []models.CashoutRequest{{ID: uuid.New(), Status: enums.CashoutStatusPending}}}}
	handler := CashoutList(svc, nil)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/cashouts", nil), uuid.New(), enums.UserRoleCourier)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data walletdto.CashoutPage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Requests) != 1 {
		t.Fatalf("expected one request, got %d", len(envelope.Data.Requests))
	}
}
