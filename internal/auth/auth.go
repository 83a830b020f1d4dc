package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// CalendarScope grants read/write access to the user's Google calendars.
	CalendarScope = "https://www.googleapis.com/auth/calendar"

	callbackAddr     = "127.0.0.1:8080"
	authorizeTimeout = 5 * time.Minute
)

// GoogleOAuthConfig builds the OAuth config used to publish celebrations to Google Calendar.
// RedirectURL is filled in by the loopback flow.
func GoogleOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{CalendarScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

// savingTokenSource wraps an oauth2.TokenSource and persists every new token it hands out.
type savingTokenSource struct {
	source oauth2.TokenSource
	store  TokenStore
	last   *oauth2.Token
}

// Token implements oauth2.TokenSource.
func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	if s.last == nil || s.last.AccessToken != token.AccessToken {
		if err := s.store.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		s.last = token
	}

	return token, nil
}

// codeFunc obtains an authorization code for oauthConfig from the user.
type codeFunc func(ctx context.Context, oauthConfig *oauth2.Config) (string, error)

// GetAuthenticatedClient returns an HTTP client authorized for the Google account
// whose token lives in tokenStore. On first use the user is sent through the
// browser consent flow with a loopback redirect.
func GetAuthenticatedClient(ctx context.Context, oauthConfig *oauth2.Config, tokenStore TokenStore) (*http.Client, error) {
	return getAuthenticatedClient(ctx, oauthConfig, tokenStore, loopbackCode)
}

func getAuthenticatedClient(ctx context.Context, oauthConfig *oauth2.Config, tokenStore TokenStore, obtainCode codeFunc) (*http.Client, error) {
	token, err := tokenStore.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil {
		code, err := obtainCode(ctx, oauthConfig)
		if err != nil {
			return nil, err
		}
		if code == "" {
			return nil, fmt.Errorf("no authorization code received")
		}

		token, err = oauthConfig.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}

		if err := tokenStore.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
	}

	source := &savingTokenSource{
		source: oauth2.ReuseTokenSource(token, oauthConfig.TokenSource(ctx, token)),
		store:  tokenStore,
		last:   token,
	}
	return oauth2.NewClient(ctx, source), nil
}

// loopbackCode runs a one-shot local HTTP server to receive the OAuth redirect.
// Port 8080 is preferred; a random port is used if it is taken.
func loopbackCode(ctx context.Context, oauthConfig *oauth2.Config) (string, error) {
	listener, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return "", fmt.Errorf("failed to start local server: %w", err)
		}
	}

	port := listener.Addr().(*net.TCPAddr).Port
	oauthConfig.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	server := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code := r.URL.Query().Get("code"); code != "" {
				fmt.Fprint(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>")
				select {
				case codeChan <- code:
				default:
				}
				return
			}
			errMsg := r.URL.Query().Get("error")
			if errMsg == "" {
				errMsg = "no authorization code received"
			}
			fmt.Fprintf(w, "<html><body><h1>Authorization failed</h1><p>Error: %s</p></body></html>", errMsg)
			select {
			case errorChan <- fmt.Errorf("authorization error: %s", errMsg):
			default:
			}
		}),
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errorChan <- fmt.Errorf("server error: %w", err)
		}
	}()
	defer server.Shutdown(context.Background())

	fmt.Printf("Starting local server on %s\n", oauthConfig.RedirectURL)
	if port != 8080 {
		fmt.Printf("Note: Port 8080 was unavailable. Make sure to add %s to your authorized redirect URIs in Google Cloud Console.\n", oauthConfig.RedirectURL)
	}
	fmt.Println("\nPlease visit the following URL to authorize publishing to Google Calendar:")
	fmt.Println(oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce))
	fmt.Println("\nWaiting for authorization...")

	select {
	case code := <-codeChan:
		fmt.Println("Authorization successful!")
		return code, nil
	case err := <-errorChan:
		return "", fmt.Errorf("failed to receive authorization code: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(authorizeTimeout):
		return "", fmt.Errorf("authorization timeout: no response received within 5 minutes")
	}
}
