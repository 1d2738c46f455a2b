package controllers

import (
	"net/http"
	"strings"

	"github.com/rcmanalo/buildmart-backend/api/responses"
	"github.com/rcmanalo/buildmart-backend/api/validators"
	"github.com/rcmanalo/buildmart-backend/internal/notifications"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
	"github.com/rcmanalo/buildmart-backend/pkg/pagination"
)

// ListNotifications returns a paginated inbox for the authenticated user.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unreadOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := notifications.ListParams{
			Scope:      scope,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
			UnreadOnly: unreadOnly,
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MarkNotificationRead marks one notification in the caller's inbox.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := pathUUID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), scope, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

// MarkAllNotificationsRead marks the caller's whole inbox.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.MarkAllRead(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

// requestScope maps the authenticated role onto an inbox audience. Staff
// roles share the admin broadcast inbox.
func requestScope(r *http.Request) (notifications.RecipientScope, error) {
	userID, role, err := requestActor(r)
	if err != nil {
		return notifications.RecipientScope{}, err
	}
	audience := enums.NotificationAudienceCustomer
	switch {
	case role.IsStaff():
		audience = enums.NotificationAudienceAdmin
	case role == enums.ActorRoleDriver:
		audience = enums.NotificationAudienceDriver
	}
	return notifications.RecipientScope{Audience: audience, RecipientID: userID}, nil
}
