package response

import (
	"net/http"
	"strings"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// Newlines are kept as-is so multi-line replies render in the chat client
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes the five XML special characters
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// RenderTwiML renders a messaging reply envelope. An empty message renders
// an envelope without a reply.
func RenderTwiML(message string) string {
	if message == "" {
		return xmlHeader + "<Response></Response>"
	}
	return xmlHeader + "<Response><Message>" + EscapeXML(message) + "</Message></Response>"
}

// TwiML sends a messaging reply envelope
func TwiML(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(RenderTwiML(message)))
}
