package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AppCredentials identify a GitHub App installation allowed to manage check runs.
type AppCredentials struct {
	AppID          int64  `validate:"required,gt=0"`
	InstallationID int64  `validate:"required,gt=0"`
	PrivateKeyPath string `validate:"required,file"`
	// APIBaseURL defaults to the public API.
	APIBaseURL string `validate:"omitempty,url"`
}

// Authenticate exchanges the App's signed JWT for an installation access
// token. A nil transport means http.DefaultTransport.
func Authenticate(ctx context.Context, creds AppCredentials, tr http.RoundTripper) (string, error) {
	if err := validate.Struct(creds); err != nil {
		return "", fmt.Errorf("invalid app credentials: %w", err)
	}
	if tr == nil {
		tr = http.DefaultTransport
	}

	itr, err := ghinstallation.NewKeyFromFile(tr, creds.AppID, creds.InstallationID, creds.PrivateKeyPath)
	if err != nil {
		return "", fmt.Errorf("load app private key: %w", err)
	}
	if creds.APIBaseURL != "" {
		itr.BaseURL = strings.TrimSuffix(creds.APIBaseURL, "/")
	}

	token, err := itr.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch installation token: %w", err)
	}
	return token, nil
}
