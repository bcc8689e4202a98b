package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/liamcoop/wardline/internal/logger"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Error codes reported in SignInError
const (
	CodeAccessDenied   = "auth/access-denied"
	CodeMissingCode    = "auth/missing-code"
	CodeInvalidState   = "auth/invalid-state"
	CodeExchangeFailed = "auth/token-exchange-failed"
	CodeUserInfoFailed = "auth/userinfo-failed"
)

// User is the signed-in Google account
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"emailVerified"`
}

// SignIn is the result of a completed sign-in
type SignIn struct {
	User    User   `json:"user"`
	IDToken string `json:"idToken"`
}

// SignInError describes a failed sign-in. Email is set when the id token
// returned by the code exchange carried one.
type SignInError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
	Err     error  `json:"-"`
}

func (e *SignInError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SignInError) Unwrap() error {
	return e.Err
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleAuth runs the authorization code flow against Google.
// No session is kept; callers carry the state value between login and callback.
type GoogleAuth struct {
	oauthConfig *oauth2.Config
	userInfoURL string
}

// NewGoogleAuth creates a Google sign-in client
func NewGoogleAuth(cfg Config) *GoogleAuth {
	return &GoogleAuth{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}
}

// NewState returns a random value for the state parameter
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL returns the Google consent page URL for state
func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.oauthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the user's profile and id token
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*SignIn, error) {
	if code == "" {
		return nil, &SignInError{Code: CodeMissingCode, Message: "authorization code is missing"}
	}

	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		signInErr := &SignInError{Code: CodeExchangeFailed, Message: "failed to exchange authorization code", Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			signInErr.Message = retrieveErr.ErrorCode
			if retrieveErr.ErrorDescription != "" {
				signInErr.Message += ": " + retrieveErr.ErrorDescription
			}
		}
		logger.ErrorVendor()
		logger.Error("Google sign-in failed", "code", signInErr.Code, "error", err)
		return nil, signInErr
	}

	idToken, _ := token.Extra("id_token").(string)

	user, err := g.fetchUser(ctx, token)
	if err != nil {
		email := emailFromIDToken(idToken)
		logger.ErrorVendor()
		logger.Error("Google sign-in failed", "code", CodeUserInfoFailed, "email", email, "error", err)
		return nil, &SignInError{Code: CodeUserInfoFailed, Message: "failed to read Google profile", Email: email, Err: err}
	}

	logger.Info("Google sign-in succeeded", "userId", user.ID, "email", user.Email)
	return &SignIn{User: *user, IDToken: idToken}, nil
}

// CallbackError converts the error parameters Google appends to the redirect
func CallbackError(code, description string) *SignInError {
	if code == "access_denied" {
		return &SignInError{Code: CodeAccessDenied, Message: "sign-in was cancelled"}
	}
	msg := code
	if description != "" {
		msg += ": " + description
	}
	return &SignInError{Code: "auth/" + code, Message: msg}
}

func (g *GoogleAuth) fetchUser(ctx context.Context, token *oauth2.Token) (*User, error) {
	client := g.oauthConfig.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	return &User{
		ID:            info.Sub,
		Email:         info.Email,
		Name:          info.Name,
		Picture:       info.Picture,
		EmailVerified: info.EmailVerified,
	}, nil
}

// emailFromIDToken reads the email claim without verifying the signature.
// The token came straight from the token endpoint, and the value is only
// used to label an error.
func emailFromIDToken(idToken string) string {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ""
	}
	var claims struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}
	return claims.Email
}
