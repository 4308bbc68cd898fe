package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/url"
	"sort"
)

// ErrInvalidSignature is returned when a webhook signature does not match.
var ErrInvalidSignature = errors.New("messaging: invalid webhook signature")

// VerifyTwilioSignature checks the X-Twilio-Signature header on a status
// callback: HMAC-SHA1 over the full callback URL concatenated with the form
// parameters sorted by key, keyed with the account auth token.
func VerifyTwilioSignature(authToken, callbackURL string, form url.Values, signature string) error {
	if authToken == "" {
		return errors.New("messaging: auth token not configured")
	}
	if signature == "" {
		return ErrInvalidSignature
	}

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := callbackURL
	for _, k := range keys {
		payload += k + form.Get(k)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
