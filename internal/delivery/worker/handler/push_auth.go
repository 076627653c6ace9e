package handler

import (
	"context"
	"net/http"
	"strings"

	"wallet/internal/errors"

	"google.golang.org/api/idtoken"
)

// tokenValidator checks a Google-signed OIDC token for audience.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

var googleIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

// pushAudience is the URL Pub/Sub was configured to push to.
func pushAudience(req *http.Request) string {
	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}

	return scheme + "://" + req.Host + req.URL.Path
}

// authenticatePush verifies the OIDC token a push subscription attaches.
// Reference: https://cloud.google.com/pubsub/docs/authenticate-push-subscriptions
func authenticatePush(req *http.Request, validate tokenValidator) error {
	scheme, token, ok := strings.Cut(req.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return errors.New("missing bearer token")
	}

	payload, err := validate(req.Context(), token, pushAudience(req))
	if err != nil {
		return errors.Wrap(err, "validate push token")
	}

	if _, ok := googleIssuers[payload.Issuer]; !ok {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return errors.New("service account email not verified")
	}

	return nil
}
