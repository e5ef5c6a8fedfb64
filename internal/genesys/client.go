package genesys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned by LookupTrunkGroup when the trunk does not
// exist in the directory.
var ErrNotFound = errors.New("trunk not found")

// Token is a bearer token obtained via the client-credentials grant.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Channel is a provisioned notification channel.
type Channel struct {
	ID         string
	ConnectURI string
}

// Options configures a Client.
type Options struct {
	Region       string // e.g. "us-east-1"
	ClientID     string
	ClientSecret string

	// LoginURL and APIURL override the region-derived endpoints.
	// Used by tests; leave empty in production.
	LoginURL string
	APIURL   string

	HTTPClient *http.Client
}

// Client talks to the Genesys Cloud REST API: token acquisition,
// notification channel provisioning, and trunk directory lookups.
type Client struct {
	http     *http.Client
	loginURL string
	apiURL   string
	clientID string
	secret   string

	mu    sync.Mutex
	token Token
}

// NewClient creates a Client for the given region and credentials.
func NewClient(opts Options) *Client {
	c := &Client{
		http:     opts.HTTPClient,
		loginURL: opts.LoginURL,
		apiURL:   opts.APIURL,
		clientID: opts.ClientID,
		secret:   opts.ClientSecret,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.loginURL == "" {
		c.loginURL = fmt.Sprintf("https://login.%s.pure.cloud", opts.Region)
	}
	if c.apiURL == "" {
		c.apiURL = fmt.Sprintf("https://api.%s.pure.cloud", opts.Region)
	}
	return c
}

// Authenticate performs the client-credentials grant and remembers the
// token for subsequent directory calls.
func (c *Client) Authenticate(ctx context.Context) (Token, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token request failed: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Token{}, fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return Token{}, fmt.Errorf("token response missing access_token")
	}

	tok := Token{
		AccessToken: body.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
	return tok, nil
}

// ProvisionChannel creates a notification channel and returns its
// websocket connect URI.
func (c *Client) ProvisionChannel(ctx context.Context, tok Token) (Channel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v2/notifications/channels", nil)
	if err != nil {
		return Channel{}, fmt.Errorf("building channel request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return Channel{}, fmt.Errorf("provisioning channel: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Channel{}, fmt.Errorf("channel request failed: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var body struct {
		ID         string `json:"id"`
		ConnectURI string `json:"connectUri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Channel{}, fmt.Errorf("decoding channel response: %w", err)
	}
	if body.ConnectURI == "" {
		return Channel{}, fmt.Errorf("channel response missing connectUri")
	}
	return Channel{ID: body.ID, ConnectURI: body.ConnectURI}, nil
}

// LookupTrunkGroup resolves a trunk ID to the name of its trunk base,
// which serves as the trunk-group name. Uses the token from the most
// recent Authenticate call.
func (c *Client) LookupTrunkGroup(ctx context.Context, trunkID string) (string, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()

	uri := c.apiURL + "/api/v2/telephony/providers/edges/trunks/" + url.PathEscape(trunkID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("building trunk request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("looking up trunk %s: %w", trunkID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("trunk %s: %w", trunkID, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("trunk request failed for %s: %s", trunkID, resp.Status)
	}

	var body struct {
		TrunkBase struct {
			Name string `json:"name"`
		} `json:"trunkBase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding trunk response for %s: %w", trunkID, err)
	}
	if body.TrunkBase.Name == "" {
		return "", fmt.Errorf("trunk %s has no trunk base: %w", trunkID, ErrNotFound)
	}
	return body.TrunkBase.Name, nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(data))
}
