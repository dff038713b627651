package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"handyman-auth/internal/auth"

	"golang.org/x/oauth2"
)

const (
	providerName    = "facebook"
	defaultGraphURL = "https://graph.facebook.com/v19.0"
)

// Verifier resolves a Facebook access token to the profile it belongs to
// by calling the Graph API.
type Verifier struct {
	graphURL string
}

func NewVerifier(graphURL string) *Verifier {
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	return &Verifier{graphURL: strings.TrimRight(graphURL, "/")}
}

// Name returns the provider identifier used by the registry.
func (v *Verifier) Name() string {
	return providerName
}

type graphProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type graphError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (v *Verifier) VerifyToken(ctx context.Context, accessToken string) (*auth.ExternalIdentity, error) {
	if accessToken == "" {
		return nil, errors.New("facebook access token is empty")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	q := url.Values{"fields": {"id,name,email,picture"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.graphURL+"/me?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		if err := json.NewDecoder(resp.Body).Decode(&ge); err == nil && ge.Error != nil && ge.Error.Message != "" {
			return nil, fmt.Errorf("facebook token rejected: %s", ge.Error.Message)
		}
		return nil, fmt.Errorf("facebook token rejected: status %d", resp.StatusCode)
	}

	var p graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("facebook profile parse failed: %w", err)
	}
	if p.ID == "" {
		return nil, errors.New("facebook profile missing id")
	}

	// Graph only returns confirmed addresses.
	return &auth.ExternalIdentity{
		Provider:       providerName,
		ProviderUserID: p.ID,
		Email:          p.Email,
		EmailVerified:  p.Email != "",
		DisplayName:    p.Name,
		AvatarURL:      p.Picture.Data.URL,
	}, nil
}
