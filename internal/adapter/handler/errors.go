package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/shop-api/internal/core/domain"
)

type errorDescription struct {
	status  int
	code    codes.Code
	message string
}

// describe maps domain errors to transport status and a caller-facing
// message. Unknown errors collapse to a generic internal error so nothing
// about internal state leaks.
func describe(err error) errorDescription {
	var (
		gone     *domain.ProductGoneError
		short    *domain.InsufficientStockError
		inputErr *domain.InputError
	)

	switch {
	case errors.As(err, &gone):
		return errorDescription{http.StatusBadRequest, codes.FailedPrecondition, gone.Error()}
	case errors.As(err, &short):
		return errorDescription{http.StatusBadRequest, codes.FailedPrecondition, short.Error()}
	case errors.Is(err, domain.ErrEmptyCart):
		return errorDescription{http.StatusBadRequest, codes.FailedPrecondition, "Cart is empty"}
	case errors.Is(err, domain.ErrInvalidQuantity):
		return errorDescription{http.StatusBadRequest, codes.InvalidArgument, "Quantity must be > 0"}
	case errors.As(err, &inputErr):
		return errorDescription{http.StatusBadRequest, codes.InvalidArgument, inputErr.Reason}
	case errors.Is(err, domain.ErrInvalidInput):
		return errorDescription{http.StatusBadRequest, codes.InvalidArgument, "Invalid input"}
	case errors.Is(err, domain.ErrProductNotFound):
		return errorDescription{http.StatusNotFound, codes.NotFound, "Product not found"}
	case errors.Is(err, domain.ErrItemNotInCart):
		return errorDescription{http.StatusNotFound, codes.NotFound, "Item not in cart"}
	case errors.Is(err, domain.ErrNotFound):
		return errorDescription{http.StatusNotFound, codes.NotFound, "Not found"}
	case errors.Is(err, domain.ErrEmailTaken):
		return errorDescription{http.StatusConflict, codes.AlreadyExists, "Email already registered"}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return errorDescription{http.StatusConflict, codes.AlreadyExists, "Duplicate request"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errorDescription{http.StatusUnauthorized, codes.Unauthenticated, "Invalid credentials"}
	case errors.Is(err, domain.ErrMissingToken):
		return errorDescription{http.StatusUnauthorized, codes.Unauthenticated, "Missing token"}
	case errors.Is(err, domain.ErrUnauthenticated):
		return errorDescription{http.StatusUnauthorized, codes.Unauthenticated, "Invalid or expired token"}
	case errors.Is(err, domain.ErrForbidden):
		return errorDescription{http.StatusForbidden, codes.PermissionDenied, "Forbidden"}
	}
	return errorDescription{http.StatusInternalServerError, codes.Internal, "Internal server error"}
}
