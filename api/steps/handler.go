package steps

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/core/steplog"
)

// NewHandler returns an HTTP handler exposing stored steps via
// GET /api/steps?run_id=&from=&limit=.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewHandler(store steplog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := steplog.Query{RunID: r.URL.Query().Get("run_id")}
		var err error
		if q.From, err = intParam(r, "from"); err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		if q.Limit, err = intParam(r, "limit"); err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []model.StepEvent{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err == nil && v < 0 {
		return 0, strconv.ErrRange
	}
	return v, err
}
