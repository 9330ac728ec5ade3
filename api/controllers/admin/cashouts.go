package admin

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers/actorcontext"
	admindto "github.com/angelmondragon/bazaarlink-backend/api/controllers/admin/dto"
	walletdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/wallet/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/responses"
	"github.com/angelmondragon/bazaarlink-backend/api/validators"
	"github.com/angelmondragon/bazaarlink-backend/internal/cashout"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

const (
	maxReasonLen    = 280
	maxReferenceLen = 128
)

// CashoutQueue lists cashout requests, optionally filtered by status.
func CashoutQueue(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashout service unavailable"))
			return
		}

		if _, err := actorcontext.ResolveRole(r, enums.UserRoleAdmin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.CashoutStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseCashoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		page, err := svc.ListForAdmin(r.Context(), status, params)
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

// CashoutApprove moves a pending request to approved.
func CashoutApprove(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return cashoutAction(svc, logg, func(r *http.Request, actor actorcontext.Actor, cashoutID uuid.UUID) (*models.CashoutRequest, error) {
		return svc.Approve(r.Context(), cashout.AdminInput{CashoutID: cashoutID, ActorUserID: actor.UserID})
	})
}

// CashoutReject declines a request and releases its hold back to available.
func CashoutReject(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return cashoutAction(svc, logg, func(r *http.Request, actor actorcontext.Actor, cashoutID uuid.UUID) (*models.CashoutRequest, error) {
		var payload admindto.RejectCashoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Reject(r.Context(), cashout.RejectInput{
			CashoutID:   cashoutID,
			ActorUserID: actor.UserID,
			Reason:      validators.SanitizeString(payload.Reason, maxReasonLen),
		})
	})
}

// CashoutTransfer records the outgoing bank transfer of an approved request.
func CashoutTransfer(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return cashoutAction(svc, logg, func(r *http.Request, actor actorcontext.Actor, cashoutID uuid.UUID) (*models.CashoutRequest, error) {
		var payload admindto.TransferCashoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.MarkTransferred(r.Context(), cashout.TransferInput{
			CashoutID:   cashoutID,
			ActorUserID: actor.UserID,
			Reference:   validators.SanitizeString(payload.Reference, maxReferenceLen),
		})
	})
}

// CashoutComplete closes a transferred request.
func CashoutComplete(svc cashout.Service, logg *logger.Logger) http.HandlerFunc {
	return cashoutAction(svc, logg, func(r *http.Request, actor actorcontext.Actor, cashoutID uuid.UUID) (*models.CashoutRequest, error) {
		return svc.Complete(r.Context(), cashout.AdminInput{CashoutID: cashoutID, ActorUserID: actor.UserID})
	})
}

type cashoutActionFunc func(r *http.Request, actor actorcontext.Actor, cashoutID uuid.UUID) (*models.CashoutRequest, error)

func cashoutAction(svc cashout.Service, logg *logger.Logger, action cashoutActionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashout service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleAdmin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cashoutID, err := actorcontext.URLParamUUID(r, "cashoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := action(r, actor, cashoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletdto.FromCashout(req))
	}
}
