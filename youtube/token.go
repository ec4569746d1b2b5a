package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// storedToken accepts both the oauth2.Token JSON layout and the authorized
// user layout written by Google's Python tooling (token.json).
type storedToken struct {
	AccessToken  string `json:"access_token"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Expiry       string `json:"expiry"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (t storedToken) OAuth2() *oauth2.Token {
	access := t.AccessToken
	if access == "" {
		access = t.Token
	}
	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.expiry(),
	}
}

var expiryLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

// expiry parses the stored expiry. An unreadable expiry is treated as
// already expired so the refresh token is used.
func (t storedToken) expiry() time.Time {
	if t.Expiry == "" {
		return time.Time{}
	}
	for _, layout := range expiryLayouts {
		if ts, err := time.Parse(layout, t.Expiry); err == nil {
			return ts
		}
	}
	return time.Unix(1, 0)
}

// loadToken reads raw, which is either inline JSON or a path to a JSON file.
func loadToken(raw string) (storedToken, error) {
	var tok storedToken

	data := []byte(strings.TrimSpace(raw))
	if len(data) == 0 || data[0] != '{' {
		fileData, err := os.ReadFile(raw)
		if err != nil {
			return tok, fmt.Errorf("unable to read token file: %w", err)
		}
		data = fileData
	}

	if err := json.Unmarshal(data, &tok); err != nil {
		return tok, fmt.Errorf("unable to parse token: %w", err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" && tok.Token == "" {
		return tok, errors.New("token has neither an access nor a refresh token")
	}
	return tok, nil
}
