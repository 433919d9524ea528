package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const defaultUserName = "Unknown User"

// OAuthClient is the part of *oauth2.Config the login flow needs.
type OAuthClient interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// Identity is what a verified ID token says about the user.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Identity, error)
}

// GoogleVerifier checks ID token signature, expiry and audience against
// Google's published keys.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, v.clientID)
	if err != nil {
		return nil, err
	}
	identity := &Identity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}

func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// AuthService runs the Google authorization code flow.
type AuthService struct {
	oauth    OAuthClient
	verifier TokenVerifier
	users    UserService
	logger   *slog.Logger
}

func NewAuthService(oauth OAuthClient, verifier TokenVerifier, users UserService) *AuthService {
	return &AuthService{
		oauth:    oauth,
		verifier: verifier,
		users:    users,
		logger:   logger.NewModuleLogger("service", "auth"),
	}
}

func (s *AuthService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a verified identity. Every
// failure is a validation error since it stems from the callback input.
func (s *AuthService) Exchange(ctx context.Context, code string) (*types.User, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", types.ErrValidation)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %w", types.ErrValidation, err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: Failed to obtain ID token", types.ErrValidation)
	}

	identity, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ID token: %w", types.ErrValidation, err)
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("%w: ID token has no subject", types.ErrValidation)
	}

	user := &types.User{
		ID:    identity.Subject,
		Email: identity.Email,
		Name:  identity.Name,
	}
	if user.Name == "" {
		user.Name = defaultUserName
	}
	return user, nil
}

// Login exchanges the code and registers the user on first sight.
func (s *AuthService) Login(ctx context.Context, code string) (*types.User, error) {
	user, err := s.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	user, err = s.users.FindOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, nil
}
