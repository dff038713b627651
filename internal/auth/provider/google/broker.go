package google

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"handyman-auth/internal/auth/provider"
	"handyman-auth/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

var (
	ErrNoAccounts       = errors.New("no authorized google account is available")
	ErrNoChooser        = errors.New("several google accounts match and no account chooser is configured")
	ErrNotAuthorized    = errors.New("google account has not authorized this app")
	ErrAudienceMismatch = errors.New("google id_token was not issued for the server client id")
)

// Account is a Google account known to the device. RefreshToken is empty
// for accounts that have not authorized this client.
type Account struct {
	Email        string
	RefreshToken string
}

// AccountChooser asks the user to pick one of accounts. It returns
// auth.ErrCancelled when the user dismisses the prompt.
type AccountChooser func(ctx context.Context, accounts []Account) (Account, error)

// Broker hands out Google id tokens for accounts stored on this device by
// refreshing their OAuth grants.
type Broker struct {
	oauthConfig *oauth2.Config
	accounts    []Account
	chooser     AccountChooser
}

type BrokerOption func(*Broker)

// WithChooser sets the prompt used when more than one account matches.
func WithChooser(c AccountChooser) BrokerOption {
	return func(b *Broker) { b.chooser = c }
}

// WithEndpoint overrides Google's OAuth endpoint.
func WithEndpoint(ep oauth2.Endpoint) BrokerOption {
	return func(b *Broker) { b.oauthConfig.Endpoint = ep }
}

// NewBroker builds a broker from email -> refresh token pairs.
func NewBroker(clientID, clientSecret string, accounts map[string]string, opts ...BrokerOption) *Broker {
	b := &Broker{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleoauth.Endpoint,
		},
	}

	for email, token := range accounts {
		b.accounts = append(b.accounts, Account{Email: email, RefreshToken: token})
	}
	sort.Slice(b.accounts, func(i, j int) bool {
		return b.accounts[i].Email < b.accounts[j].Email
	})

	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) Request(ctx context.Context, opts provider.CredentialOptions) (provider.Credential, error) {
	candidates := b.accounts
	if opts.FilterByAuthorizedAccounts {
		candidates = slices.DeleteFunc(slices.Clone(b.accounts), func(a Account) bool {
			return a.RefreshToken == ""
		})
	}
	if len(candidates) == 0 {
		return provider.Credential{}, ErrNoAccounts
	}

	account, err := b.choose(ctx, candidates, opts.AutoSelect)
	if err != nil {
		return provider.Credential{}, err
	}
	if account.RefreshToken == "" {
		return provider.Credential{}, ErrNotAuthorized
	}

	ts := b.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: account.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		if ctx.Err() != nil {
			return provider.Credential{}, ctx.Err()
		}
		return provider.Credential{}, fmt.Errorf("google token refresh failed: %w", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return provider.Credential{}, errors.New("google did not return id_token")
	}

	if opts.ServerClientID != "" {
		if err := checkAudience(rawIDToken, opts.ServerClientID); err != nil {
			return provider.Credential{}, err
		}
	}

	logger.Info("google credential issued", map[string]any{
		"component":  "google",
		"candidates": len(candidates),
	})

	return provider.Credential{
		Type: provider.TypeGoogleIDToken,
		Data: map[string]string{
			"id_token": rawIDToken,
			"email":    account.Email,
		},
	}, nil
}

func (b *Broker) choose(ctx context.Context, candidates []Account, autoSelect bool) (Account, error) {
	if len(candidates) == 1 && (autoSelect || b.chooser == nil) {
		return candidates[0], nil
	}
	if b.chooser == nil {
		return Account{}, ErrNoChooser
	}

	return b.chooser(ctx, candidates)
}

// checkAudience inspects the aud claim only. Signature and expiry are
// verified by the backend.
func checkAudience(rawIDToken, audience string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return fmt.Errorf("google id_token is malformed: %w", err)
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return fmt.Errorf("google id_token is malformed: %w", err)
	}
	if !slices.Contains(aud, audience) {
		return ErrAudienceMismatch
	}
	return nil
}
