package middleware

import "net/http"

// MethodOverrideHeader lets clients limited to GET and POST send PUT and DELETE.
const MethodOverrideHeader = "X-HTTP-Method-Override"

// MethodOverrideMiddleware rewrites a POST carrying MethodOverrideHeader to the named method.
func MethodOverrideMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch method := r.Header.Get(MethodOverrideHeader); method {
			case http.MethodPut, http.MethodDelete:
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}
