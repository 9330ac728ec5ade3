package checkout

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers/actorcontext"
	checkoutdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/checkout/dto"
	ordersdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/orders/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/responses"
	"github.com/angelmondragon/bazaarlink-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/bazaarlink-backend/internal/checkout"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

// Checkout converts the customer's cart into an order group.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutdto.CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.CheckoutInput{
			CustomerID:    actor.UserID,
			AddressID:     payload.AddressID,
			PaymentMethod: method,
			CouponCode:    strings.TrimSpace(payload.CouponCode),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutdto.CheckoutResponse{
			Group:          ordersdto.FromGroup(result.Group),
			FallbackOrders: result.FallbackOrders,
		})
	}
}

// OrderGroupFetch returns one of the customer's order groups.
func OrderGroupFetch(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupID, err := actorcontext.URLParamUUID(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.GetGroup(r.Context(), actor.UserID, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromGroup(group))
	}
}
