package handler

import (
	"net/http"

	"github.com/GuahBy/projetISY/internal/pkg/resp"
)

// HandleListUsers returns every active user with its current group.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Directory.UserSummaries())
	}
}

// HandleListGroups returns every active, non-empty group with member and
// admin counts.
func HandleListGroups(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Directory.GroupSummaries())
	}
}

// HandleStats returns occupancy against the configured capacity bounds.
func HandleStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, groups := deps.Directory.Counts()
		data := map[string]int{
			"user_slots":  users,
			"group_slots": groups,
			"max_clients": deps.Config.MaxClients,
			"max_groups":  deps.Config.MaxGroups,
		}
		resp.RespondSuccess(w, r, data)
	}
}
