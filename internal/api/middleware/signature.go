package middleware

import (
	"net/http"
	"strings"

	"github.com/Rrens/fairway/internal/api/response"
	"github.com/Rrens/fairway/internal/security"
	"github.com/rs/zerolog/log"
)

const msgAuthFailed = "❌ Erreur d'authentification. Veuillez contacter l'administrateur."

// SignatureMiddleware rejects webhook posts whose signature does not match
type SignatureMiddleware struct {
	verifier  *security.SignatureVerifier
	header    string
	publicURL string
}

// NewSignatureMiddleware creates a new signature middleware. publicURL, when
// set, replaces the scheme and host seen by the server when rebuilding the
// signed URL.
func NewSignatureMiddleware(verifier *security.SignatureVerifier, header, publicURL string) *SignatureMiddleware {
	if !verifier.Enabled() {
		log.Warn().Msg("Webhook auth token not configured: signature verification disabled (development only)")
	}
	return &SignatureMiddleware{
		verifier:  verifier,
		header:    header,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Verify checks the signature header of POST requests
func (m *SignatureMiddleware) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !m.verifier.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if err := r.ParseForm(); err != nil {
			response.TwiML(w, http.StatusBadRequest, "")
			return
		}

		signature := r.Header.Get(m.header)
		if signature == "" {
			log.Warn().Str("path", r.URL.Path).Msg("missing webhook signature")
			response.TwiML(w, http.StatusUnauthorized, msgAuthFailed)
			return
		}

		if !m.verifier.Verify(signature, m.requestURL(r), r.PostForm) {
			log.Warn().Str("path", r.URL.Path).Msg("invalid webhook signature")
			response.TwiML(w, http.StatusUnauthorized, msgAuthFailed)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestURL rebuilds the URL the sender signed
func (m *SignatureMiddleware) requestURL(r *http.Request) string {
	base := m.publicURL
	if base == "" {
		scheme := r.Header.Get("X-Forwarded-Proto")
		if scheme == "" {
			scheme = "https"
		}
		host := r.Header.Get("X-Forwarded-Host")
		if host == "" {
			host = r.Host
		}
		base = scheme + "://" + host
	}

	u := base + r.URL.Path
	if r.URL.RawQuery != "" {
		u += "?" + r.URL.RawQuery
	}
	return u
}
