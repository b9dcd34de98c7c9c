package security

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// SignatureField is the form field excluded from the signed payload
const SignatureField = "Signature"

// SignatureVerifier verifies webhook request signatures keyed by a shared secret
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier for the given auth token. An empty
// token yields a verifier whose Enabled reports false.
func NewSignatureVerifier(authToken string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(authToken)}
}

// Enabled reports whether a shared secret is configured
func (v *SignatureVerifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify checks a signature against the request URL and its form fields
func (v *SignatureVerifier) Verify(signature, requestURL string, form url.Values) bool {
	return VerifySignature(signature, requestURL, form, v.secret)
}

// CanonicalString builds the signed payload: the full request URL followed by
// every form key, sorted, concatenated with its value
func CanonicalString(requestURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(requestURL)
	for _, k := range keys {
		for _, value := range form[k] {
			b.WriteString(k)
			b.WriteString(value)
		}
	}
	return b.String()
}

// ComputeSignature returns the base64 HMAC-SHA1 of the canonical string
func ComputeSignature(requestURL string, form url.Values, secret []byte) string {
	mac := hmac.New(sha1.New, secret)
	mac.Write([]byte(CanonicalString(requestURL, form)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature with the expected one in constant time
func VerifySignature(signature, requestURL string, form url.Values, secret []byte) bool {
	if signature == "" || len(secret) == 0 {
		return false
	}
	expected := ComputeSignature(requestURL, form, secret)
	if len(expected) != len(signature) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
