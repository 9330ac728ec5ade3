package admin

import (
	"net/http"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers/actorcontext"
	admindto "github.com/angelmondragon/bazaarlink-backend/api/controllers/admin/dto"
	ordersdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/orders/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/responses"
	"github.com/angelmondragon/bazaarlink-backend/api/validators"
	"github.com/angelmondragon/bazaarlink-backend/internal/checkout"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

// ConfirmPayment resolves a pending online payment reported by the payment rail.
func ConfirmPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleAdmin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupID, err := actorcontext.URLParamUUID(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload admindto.ConfirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := paymentResult(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.ConfirmPayment(r.Context(), checkout.ConfirmPaymentInput{
			GroupID:     groupID,
			Result:      result,
			ActorUserID: actor.UserID,
			ActorRole:   actor.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromGroup(group))
	}
}

func paymentResult(payload admindto.ConfirmPaymentRequest) (checkout.PaymentResult, error) {
	status, err := enums.ParsePaymentStatus(payload.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
	}
	reference := validators.SanitizeString(payload.Reference, maxReferenceLen)
	switch status {
	case enums.PaymentStatusPaid:
		return checkout.PaymentSucceeded{Reference: reference}, nil
	case enums.PaymentStatusPending:
		return checkout.PaymentPending{Reference: reference}, nil
	case enums.PaymentStatusFailed:
		return checkout.PaymentFailed{Reason: validators.SanitizeString(payload.Reason, maxReasonLen)}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment status cannot be confirmed").
			WithDetails(map[string]any{"status": status})
	}
}
