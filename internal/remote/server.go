package remote

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/services"
)

type checkInRequest struct {
	PrayerID string `json:"prayerID"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter serves the remote actions over HTTP. Every route but /health
// requires the secret header when secret is non-empty.
func NewRouter(actions *Actions, secret string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(requireSecret(secret))
	api.HandleFunc("/activities", listHandler(actions)).Methods(http.MethodGet)
	api.HandleFunc("/activities/{id}/check-in", checkInHandler(actions)).Methods(http.MethodPost)
	api.HandleFunc("/activities/{id}/start", startHandler(actions)).Methods(http.MethodPost)
	return r
}

func requireSecret(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				got := r.Header.Get(constants.SecretHeader)
				if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					writeError(w, http.StatusUnauthorized, errors.New("invalid or missing secret"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func listHandler(actions *Actions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := actions.Activities(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func checkInHandler(actions *Actions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		id := mux.Vars(r)["id"]
		if err := actions.CheckIn(r.Context(), req.PrayerID, id); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		logger.Info("Remote check-in queued", "activity_id", id)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

func startHandler(actions *Actions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		err := actions.Start(r.Context(), id)
		switch {
		case errors.Is(err, services.ErrActivityNotFound):
			writeError(w, http.StatusNotFound, err)
			return
		case err != nil:
			writeError(w, http.StatusConflict, err)
			return
		}
		logger.Info("Remote start requested", "activity_id", id)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
