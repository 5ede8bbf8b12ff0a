package middleware

import (
	"log"
	"net/http"

	"aura/internal/auth"
)

// AuthMiddleware resolves the session cookie and stores the user in the request context.
// Requests without a valid session continue anonymously.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(auth.SessionCookieName)
		if err != nil || sessionCookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := auth.GetUserBySession(sessionCookie.Value)
		if err != nil {
			auth.ClearSessionCookie(w)
			log.Printf("Invalid or expired session for %s %s: %v", r.Method, r.URL.Path, err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// RequireAuthMiddleware rejects anonymous requests with a JSON 401.
func RequireAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUserFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
