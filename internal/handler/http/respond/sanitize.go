package respond

import (
	"regexp"
)

var (
	// Query and form credentials as they appear in provider URLs.
	tokenParamPattern = regexp.MustCompile(`(?i)\b(access_token|refresh_token|client_secret|oauth_token|oauth_token_secret|oauth_signature|oauth_verifier|code|key)=([^&\s"]+)`)
	// Authorization header values echoed in transport errors.
	bearerPattern = regexp.MustCompile(`(?i)\b(Bearer|OAuth)\s+[A-Za-z0-9._~+/=,"\-]+`)
	// Password in a DSN.
	dbPasswordPattern = regexp.MustCompile(`://([^:/]+):([^@]+)@`)
)

// SanitizeError returns err's message with provider credentials and
// database passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize masks provider credentials and database passwords in msg.
func Sanitize(msg string) string {
	msg = tokenParamPattern.ReplaceAllString(msg, "$1=****")
	msg = bearerPattern.ReplaceAllString(msg, "$1 ****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
