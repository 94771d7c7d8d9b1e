package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
	ordersapp "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/application"
	apierrors "github.com/Apurer/go-escrow-marketplace/internal/shared/errors"
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondError keeps transport call sites short while returning RFC 7807
// responses.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	case http.StatusUnauthorized:
		problem = apierrors.ErrUnauthorized.WithDetail(err.Error())
	case http.StatusForbidden:
		problem = apierrors.ErrForbidden.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// respondOrderServiceError translates order engine failures into problems.
func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	var gatewayErr *ordersports.GatewayError
	switch {
	case errors.Is(err, ordersdomain.ErrNotFound):
		respondProblem(c, apierrors.ErrNotFound.WithDetail(err.Error()))
	case errors.Is(err, ordersdomain.ErrForbidden):
		respondProblem(c, apierrors.ErrForbidden.WithDetail(err.Error()))
	case errors.Is(err, ordersapp.ErrProductUnavailable):
		respondProblem(c, apierrors.ErrUnprocessable.WithDetail(err.Error()))
	case errors.Is(err, ordersapp.ErrPaymentNotConfirmed):
		respondProblem(c, apierrors.ErrPaymentNotConfirmed.WithDetail(err.Error()))
	case errors.Is(err, ordersdomain.ErrInvalidTransition), errors.Is(err, ordersdomain.ErrConflict):
		respondProblem(c, apierrors.ErrConflict.WithDetail(err.Error()))
	case errors.Is(err, ordersports.ErrSignatureInvalid):
		respondProblem(c, apierrors.ErrUnauthorized.WithDetail(err.Error()))
	case errors.As(err, &gatewayErr):
		respondProblem(c, apierrors.ErrBadGateway.WithDetail(err.Error()))
	default:
		respondProblem(c, apierrors.ErrInternal.WithDetail(err.Error()))
	}
}
