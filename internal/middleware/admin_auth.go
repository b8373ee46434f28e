package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminRealm is the realm announced to browsers for the admin pages
const AdminRealm = "Gallery Admin"

// BasicAuth creates middleware requiring HTTP Basic credentials matching
// username and the bcrypt passwordHash.
func BasicAuth(realm, username, passwordHash string) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, challenge, "Authentication required.")
				return
			}

			// bcrypt runs even when the username does not match
			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passwordMatch := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil

			if !userMatch || !passwordMatch {
				unauthorized(w, challenge, "Invalid credentials.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, challenge, message string) {
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
