package controllers

import (
	"net/http"
	"strings"

	"github.com/rcmanalo/buildmart-backend/api/responses"
	"github.com/rcmanalo/buildmart-backend/api/validators"
	"github.com/rcmanalo/buildmart-backend/internal/payments"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
)

type selectMethodRequest struct {
	Method   string  `json:"method" validate:"required"`
	ProofRef *string `json:"proof_ref,omitempty" validate:"omitempty,min=1"`
}

type rejectProofRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// SelectPaymentMethod records the customer's payment choice and an
// optional proof-of-payment reference.
func SelectPaymentMethod(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body selectMethodRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.SelectMethodInput{
			OrderID:     orderID,
			Method:      enums.PaymentMethod(strings.TrimSpace(body.Method)),
			ProofRef:    body.ProofRef,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		if err := svc.SelectMethod(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"method": string(input.Method)})
	}
}

// RejectPaymentProof sends a submitted proof back to the customer.
func RejectPaymentProof(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rejectProofRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.RejectProofInput{
			OrderID:     orderID,
			Reason:      strings.TrimSpace(body.Reason),
			ActorUserID: actorID,
			ActorRole:   role,
		}
		if err := svc.RejectProof(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"rejected": true})
	}
}
