package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/api/responses"
	"github.com/fitplay-hq/fitplay-backend/api/validators"
	"github.com/fitplay-hq/fitplay-backend/internal/users"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

type provisionUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role" validate:"required,oneof=EMPLOYEE HR ADMIN"`
	CompanyID *string `json:"companyId,omitempty" validate:"omitempty,uuid"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CompanyID uuid.UUID `json:"companyId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		CompanyID: u.CompanyID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// UserProvision creates a user and their wallet. HR provisions into their own
// company and may only create employees; ADMIN may set any company and role.
func UserProvision(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "user service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body provisionUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(body.Role)
		if err != nil {
			err = apperrors.New(apperrors.CodeValidation, "unknown role")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID := actor.CompanyID
		if body.CompanyID != nil {
			parsed, parseErr := uuid.Parse(*body.CompanyID)
			if parseErr != nil {
				err = apperrors.New(apperrors.CodeValidation, "companyId must be a valid UUID")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			companyID = parsed
		}

		if actor.Role != enums.UserRoleAdmin {
			if companyID != actor.CompanyID {
				err = apperrors.New(apperrors.CodeForbidden, "cannot provision users outside your company")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if role != enums.UserRoleEmployee {
				err = apperrors.New(apperrors.CodeForbidden, "only admins can grant elevated roles")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		user, err := svc.Provision(r.Context(), users.ProvisionInput{
			Email:     body.Email,
			Password:  body.Password,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Phone:     body.Phone,
			Role:      role,
			CompanyID: companyID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toUserResponse(user))
	}
}

// UserList returns the active users of a company. HR is pinned to their own
// company; ADMIN may pass a company filter.
func UserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "user service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID := actor.CompanyID
		if actor.Role == enums.UserRoleAdmin {
			if override, parseErr := validators.ParseQueryUUID(r, "companyId"); parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			} else if override != nil {
				companyID = *override
			}
		}

		list, err := svc.ListByCompany(r.Context(), companyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]userResponse, 0, len(list))
		for i := range list {
			out = append(out, toUserResponse(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"users": out})
	}
}
