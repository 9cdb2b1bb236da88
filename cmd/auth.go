package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/tuneport/internal/server"
	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultTokenFile = "spotify_token.json"

// authTimeout bounds how long the login command waits for the browser callback.
const authTimeout = 5 * time.Minute

// AuthLogin runs the Spotify authorization code flow: opens the consent page
// in a browser, catches the callback on localhost, and persists the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: set spotify client_id and client_secret in config.toml", shared.ErrMissingCredentials)
	}

	state := shared.GenerateID()
	authURL := r.spotify.GetAuthURL(state)

	r.writePlainln("Opening browser for Spotify authorization...")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		r.writePlainln("Visit this URL to authorize:\n\n  %s", authURL)
	}

	token, err := server.WaitForCallback(ctx, r.spotify.OAuthConfig(), state, authTimeout, r.logger)
	if err != nil {
		return err
	}
	r.spotify.SetToken(ctx, token)

	tokenFile := cmd.String("token-file")
	if err := saveToken(tokenFile, token); err != nil {
		return err
	}

	return r.writePlainln("Authorized. Token saved to %s", tokenFile)
}

// AuthStatus reports whether a stored token exists and which account it
// belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	tokenFile := cmd.String("token-file")

	token, err := loadToken(tokenFile)
	if err != nil {
		r.writePlainln("Not authenticated: %v", err)
		return nil
	}

	r.writePlainln("Token file: %s", tokenFile)
	if token.RefreshToken != "" {
		r.writePlainln("Refresh token: present")
	}
	if !token.Expiry.IsZero() {
		r.writePlainln("Access token expires: %s", token.Expiry.Format(time.RFC3339))
	}

	if r.spotify == nil {
		return nil
	}

	r.spotify.SetToken(ctx, token)
	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		r.writePlainln("Profile lookup failed: %v", err)
		return nil
	}

	return r.writePlainln("Account: %s (%s)", user.DisplayName, user.ID)
}

// saveToken writes the OAuth token as JSON, readable by the owner only.
func saveToken(path string, token *oauth2.Token) error {
	data, err := shared.MarshalJSON(token, true)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// loadToken reads a previously saved OAuth token.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: corrupt token file: %v", shared.ErrNotAuthenticated, err)
	}
	return &token, nil
}
