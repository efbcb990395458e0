package handler

import (
	"net/http"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Directory lookups
// ============================================================

func appInfoHandler(dir *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/app")
		defer span.End()

		info, err := dir.GetAppInfo(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"agentid":         info.AgentID,
			"name":            info.Name,
			"description":     info.Description,
			"allowed_users":   info.UserIDs(),
			"allowed_parties": info.PartyIDs(),
			"allowed_tags":    info.AllowedTags,
			"closed":          info.Closed,
		})
	}
}

// listDepartmentsHandler accepts an optional ?id= to list one subtree.
func listDepartmentsHandler(dir *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/departments")
		defer span.End()

		id := 0
		if raw := r.URL.Query().Get("id"); raw != "" {
			n, err := intParam("id", raw)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			id = n
		}

		depts, err := dir.ListDepartments(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if depts == nil {
			depts = []domain.Department{}
		}
		writeJSON(w, http.StatusOK, depts)
	}
}

func departmentUsersHandler(dir *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/departments/{id}/users")
		defer span.End()

		id, err := intParam("id", chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		members, err := dir.ListDepartmentUsers(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if members == nil {
			members = []domain.DepartmentMember{}
		}
		writeJSON(w, http.StatusOK, members)
	}
}

func tagUsersHandler(dir *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tags/{tagId}/users")
		defer span.End()

		tagID, err := intParam("tagId", chi.URLParam(r, "tagId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		members, err := dir.GetTagUsers(ctx, tagID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, members)
	}
}

func getUserHandler(dir *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}")
		defer span.End()

		user, err := dir.GetUser(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// batchUsersHandler serves GET /v1/users?ids=a,b,c.
func batchUsersHandler(dir *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users")
		defer span.End()

		users, err := dir.GetUsers(ctx, splitList(r.URL.Query().Get("ids")))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}
