package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers/actorcontext"
	ordersdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/orders/dto"
	"github.com/angelmondragon/bazaarlink-backend/api/responses"
	"github.com/angelmondragon/bazaarlink-backend/api/validators"
	internalorders "github.com/angelmondragon/bazaarlink-backend/internal/orders"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

// CourierAvailable lists unassigned orders whose payment allows dispatch.
func CourierAvailable(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		if _, err := actorcontext.ResolveRole(r, enums.UserRoleCourier); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListAvailable(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderPage(page))
	}
}

// CourierAssigned lists the calling courier's orders.
func CourierAssigned(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorcontext.ResolveRole(r, enums.UserRoleCourier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListAssigned(r.Context(), actor.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderPage(page))
	}
}

// CourierOrderDetail returns an order visible to the calling courier.
func CourierOrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, orderID, err := courierAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCourier(r.Context(), actor.UserID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromOrder(order))
	}
}

// CourierAccept claims an unassigned order for the calling courier.
func CourierAccept(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, orderID, err := courierAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Accept(r.Context(), internalorders.AcceptInput{
			OrderID:   orderID,
			CourierID: actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromOrder(order))
	}
}

// CourierItemCollected marks one order item as collected or not.
func CourierItemCollected(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, orderID, err := courierAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := actorcontext.URLParamUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ordersdto.ItemCollectedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SetItemCollected(r.Context(), internalorders.ItemCollectionInput{
			OrderID:   orderID,
			ItemID:    itemID,
			CourierID: actor.UserID,
			Collected: *payload.Collected,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromOrder(order))
	}
}

// CourierConfirmPickup confirms every item of one vendor leg was collected.
func CourierConfirmPickup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, orderID, err := courierAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := actorcontext.URLParamUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmVendorPickup(r.Context(), internalorders.PickupInput{
			OrderID:   orderID,
			VendorID:  vendorID,
			CourierID: actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromOrder(order))
	}
}

// CourierOutForDelivery dispatches a fully collected order.
func CourierOutForDelivery(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, orderID, err := courierAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkOutForDelivery(r.Context(), internalorders.CourierActionInput{
			OrderID:   orderID,
			CourierID: actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.FromOrder(order))
	}
}

// CourierDeliver completes delivery with the customer's OTP and settles wallets.
func CourierDeliver(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, orderID, err := courierAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ordersdto.DeliverRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CompleteDelivery(r.Context(), internalorders.DeliveryInput{
			OrderID:   orderID,
			CourierID: actor.UserID,
			OTP:       payload.OTP,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersdto.DeliveryResponse{
			Order:              ordersdto.FromOrder(result.Order),
			CourierPayoutPaise: result.CourierPayoutPaise,
			VendorEarningPaise: result.VendorEarningPaise,
		})
	}
}

func courierAndOrder(r *http.Request) (actorcontext.Actor, uuid.UUID, error) {
	actor, err := actorcontext.ResolveRole(r, enums.UserRoleCourier)
	if err != nil {
		return actorcontext.Actor{}, uuid.Nil, err
	}
	orderID, err := actorcontext.URLParamUUID(r, "orderId")
	if err != nil {
		return actorcontext.Actor{}, uuid.Nil, err
	}
	return actor, orderID, nil
}

func newOrderPage(page *internalorders.OrderPage) ordersdto.OrderPage {
	if page == nil {
		return ordersdto.OrderPage{Orders: []ordersdto.Order{}}
	}
	return ordersdto.OrderPage{
		Orders:     ordersdto.FromOrders(page.Orders),
		NextCursor: page.NextCursor,
	}
}
