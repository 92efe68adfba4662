package server

import (
	"crypto/subtle"
	"net/http"
)

// TokenAuth admits a console client when its "token" query parameter
// matches. An empty token admits everyone.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Authorize(r *http.Request) error {
	if a.Token == "" {
		return nil
	}
	given := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(given), []byte(a.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
