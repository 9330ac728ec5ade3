package wallet

import (
	"net/http"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers/actorcontext"
	walletdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/wallet/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/responses"
	"github.com/angelmondragon/bazaarlink-backend/api/validators"
	"github.com/angelmondragon/bazaarlink-backend/internal/cashout"
	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

// WalletFetch returns the caller's wallet, creating it on first access.
func WalletFetch(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		actor, ownerType, err := walletOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.GetWallet(r.Context(), actor.UserID, ownerType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletdto.FromWallet(wallet))
	}
}

// WalletTransactions pages through the caller's ledger postings.
func WalletTransactions(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		actor, ownerType, err := walletOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.GetWallet(r.Context(), actor.UserID, ownerType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListTransactions(r.Context(), wallet.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletdto.TransactionPage{
			Transactions: walletdto.FromTransactions(page.Transactions),
			NextCursor:   page.NextCursor,
		})
	}
}

// CashoutCreate requests a withdrawal of available balance.
func CashoutCreate(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashout service unavailable"))
			return
		}

		actor, ownerType, err := walletOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletdto.CreateCashoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Create(r.Context(), cashout.CreateInput{
			OwnerID:       actor.UserID,
			OwnerType:     ownerType,
			BankAccountID: payload.BankAccountID,
			AmountPaise:   payload.AmountPaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, walletdto.FromCashout(req))
	}
}

// CashoutList pages through the caller's cashout requests.
func CashoutList(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashout service unavailable"))
			return
		}

		actor, ownerType, err := walletOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForOwner(r.Context(), actor.UserID, ownerType, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletdto.CashoutPage{
			Requests:   walletdto.FromCashouts(page.Requests),
			NextCursor: page.NextCursor,
		})
	}
}

// CashoutCancel withdraws one of the caller's pending requests.
func CashoutCancel(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashout service unavailable"))
			return
		}

		actor, _, err := walletOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cashoutID, err := actorcontext.URLParamUUID(r, "cashoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Cancel(r.Context(), cashout.CancelInput{
			CashoutID:   cashoutID,
			ActorUserID: actor.UserID,
			ActorRole:   actor.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletdto.FromCashout(req))
	}
}

func walletOwner(r *http.Request) (actorcontext.Actor, enums.WalletOwnerType, error) {
	actor, err := actorcontext.ResolveRole(r, enums.UserRoleVendor, enums.UserRoleCourier)
	if err != nil {
		return actorcontext.Actor{}, "", err
	}
	ownerType, ok := actor.WalletOwnerType()
	if !ok {
		return actorcontext.Actor{}, "", pkgerrors.New(pkgerrors.CodeForbidden, "role has no wallet")
	}
	return actor, ownerType, nil
}
