package orders

import (
	"net/http"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers/actorcontext"
	ordersdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/orders/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/responses"
	"github.com/angelmondragon/bazaarlink-backend/api/validators"
	internalorders "github.com/angelmondragon/bazaarlink-backend/internal/orders"
	"github.com/angelmondragon/bazaarlink-backend/internal/otp"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

const maxCancelReasonLen = 280

// IssueOTP creates or rotates the delivery code of one of the customer's orders.
func IssueOTP(svc otp.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "otp service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := actorcontext.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		issued, err := svc.Issue(r.Context(), actor.UserID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ordersdto.OTPResponse{
			OrderID:   issued.OrderID,
			Code:      issued.Code,
			ExpiresAt: issued.ExpiresAt,
		})
	}
}

// Cancel cancels an order that no courier has picked up yet. Customers may
// cancel their own orders; admins may cancel any.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleCustomer, enums.UserRoleAdmin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := actorcontext.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ordersdto.CancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(r.Context(), internalorders.CancelInput{
			OrderID:     orderID,
			ActorUserID: actor.UserID,
			ActorRole:   actor.Role,
			Reason:      validators.SanitizeString(payload.Reason, maxCancelReasonLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromOrder(order))
	}
}
