package admin

import (
	"net/http"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers/actorcontext"
	admindto "github.com/angelmondragon/bazaarlink-backend/api/controllers/admin/dto"
	walletdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/wallet/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/responses"
	"github.com/angelmondragon/bazaarlink-backend/api/validators"
	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

// WalletDetail returns any wallet by id.
func WalletDetail(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		if _, err := actorcontext.ResolveRole(r, enums.UserRoleAdmin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		walletID, err := actorcontext.URLParamUUID(r, "walletId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.GetWalletByID(r.Context(), walletID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletdto.FromWallet(wallet))
	}
}

// WalletRelease moves part of a wallet's pending earnings into available.
func WalletRelease(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleAdmin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		walletID, err := actorcontext.URLParamUUID(r, "walletId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload admindto.ReleasePendingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.ReleasePending(r.Context(), ledger.ReleaseInput{
			WalletID:    walletID,
			AmountPaise: payload.AmountPaise,
			ActorUserID: actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletdto.FromWallet(wallet))
	}
}

// WalletReconcile folds a wallet's ledger and compares it to the stored balances.
func WalletReconcile(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		if _, err := actorcontext.ResolveRole(r, enums.UserRoleAdmin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		walletID, err := actorcontext.URLParamUUID(r, "walletId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Reconcile(r.Context(), walletID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, admindto.ReconcileResponse{
			WalletID:     result.WalletID,
			Materialized: balances(result.Materialized),
			Folded:       balances(result.Folded),
			Drifted:      result.Drifted(),
		})
	}
}

func balances(b ledger.Balances) admindto.Balances {
	return admindto.Balances{
		AvailablePaise:        b.AvailablePaise,
		PendingPaise:          b.PendingPaise,
		LifetimeEarningsPaise: b.LifetimeEarningsPaise,
	}
}
