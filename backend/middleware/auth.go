package middleware

import (
	"net/http"

	"neurostack/backend/handlers"
)

// RequireAuth rejects requests without a valid session. API consumers
// get a JSON 401, never a redirect.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := handlers.GetCurrentUser(r)
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		next(w, r)
	}
}
