package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/api/middleware"
	"github.com/fitplay-hq/fitplay-backend/internal/orders"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
)

// actorFromRequest rebuilds the authenticated actor from the context keys the
// Auth middleware seeded.
func actorFromRequest(r *http.Request) (orders.Actor, error) {
	ctx := r.Context()

	userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return orders.Actor{}, apperrors.New(apperrors.CodeUnauthorized, "missing credentials")
	}
	companyID, err := uuid.Parse(middleware.CompanyIDFromContext(ctx))
	if err != nil {
		return orders.Actor{}, apperrors.New(apperrors.CodeUnauthorized, "missing credentials")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return orders.Actor{}, apperrors.New(apperrors.CodeUnauthorized, "missing credentials")
	}
	return orders.Actor{UserID: userID, CompanyID: companyID, Role: role}, nil
}
