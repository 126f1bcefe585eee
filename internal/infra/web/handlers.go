package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statsHandler serves the same totals the in-chat /stats command shows.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := statsUC.Totals(r.Context())
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, totals)
	}
}

// usersListHandler returns a paginated list of users.
// It accepts 'offset' and 'limit' query parameters.
func usersListHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		users, err := userUC.List(ctx, offset, limit)
		if err != nil {
			http.Error(w, "Failed to list users", http.StatusInternalServerError)
			return
		}
		total, err := userUC.Count(ctx)
		if err != nil {
			http.Error(w, "Failed to count users", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data   []*model.User `json:"data"`
			Total  int           `json:"total"`
			Limit  int           `json:"limit"`
			Offset int           `json:"offset"`
		}{
			Data:   users,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		}
		writeJSON(w, http.StatusOK, response)
	}
}
