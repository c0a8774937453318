package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/EINDEX/plex-cleaner/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "PlexCleaner/1.0"
	clientID       = "plex-cleaner-client"
)

// Raw library type codes used by the /library/all search endpoint.
const (
	typeMovie   = 1
	typeEpisode = 4
	typeTrack   = 10
)

// typeCodes maps raw type names to Plex search type codes.
var typeCodes = map[string]int{
	"movie":   typeMovie,
	"episode": typeEpisode,
	"track":   typeTrack,
}

// Client implements domain.LibraryBrowser, domain.ItemFetcher, and
// domain.ItemDeleter against one authenticated Plex connection.
type Client struct {
	baseURL           string
	token             string
	machineIdentifier string // fetched from /identity on init
	httpClient        *http.Client
	logger            *slog.Logger
}

// NewClient creates a new Plex API client
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// WithToken derives a connection against the same server authenticated as
// a different viewer. The HTTP client and server identity are shared.
func (c *Client) WithToken(token string) *Client {
	return &Client{
		baseURL:           c.baseURL,
		token:             token,
		machineIdentifier: c.machineIdentifier,
		httpClient:        c.httpClient,
		logger:            c.logger,
	}
}

// MachineIdentifier returns the server's machine identifier, if fetched.
func (c *Client) MachineIdentifier() string {
	return c.machineIdentifier
}

// FetchIdentity fetches and stores the server's machineIdentifier
func (c *Client) FetchIdentity(ctx context.Context) error {
	reqURL := fmt.Sprintf("%s/identity", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Parse XML response
	var identity struct {
		XMLName           xml.Name `xml:"MediaContainer"`
		MachineIdentifier string   `xml:"machineIdentifier,attr"`
	}
	if err := xml.Unmarshal(body, &identity); err != nil {
		return err
	}

	c.machineIdentifier = identity.MachineIdentifier
	return nil
}

// setHeaders applies the standard Plex client headers to a request
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", clientID)
	req.Header.Set("X-Plex-Product", "PlexCleaner")
	req.Header.Set("X-Plex-Version", "1.0")
	req.Header.Set("User-Agent", userAgent)
}

// doRequest performs an authenticated HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)

	c.logger.Debug("plex request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("plex request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrAuthFailed
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrItemNotFound
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		c.logger.Error("plex request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// parseResponse parses a JSON response into APIResponse
func (c *Client) parseResponse(body []byte) (*MediaContainer, error) {
	var resp APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp.MediaContainer, nil
}

// SearchWatched returns all items of the given raw type across every
// library section that have any watch signal at this connection.
func (c *Client) SearchWatched(ctx context.Context, rawType string) ([]domain.Item, error) {
	code, ok := typeCodes[rawType]
	if !ok {
		return nil, fmt.Errorf("unsupported library type %q", rawType)
	}

	query := url.Values{}
	query.Set("type", fmt.Sprintf("%d", code))
	query.Set("unwatched", "0")

	body, err := c.doRequest(ctx, http.MethodGet, "/library/all", query)
	if err != nil {
		return nil, err
	}

	container, err := c.parseResponse(body)
	if err != nil {
		return nil, err
	}

	return MapItems(container.Metadata), nil
}

// FetchItem returns detailed metadata for a specific item
func (c *Client) FetchItem(ctx context.Context, key string) (*domain.Item, error) {
	path := fmt.Sprintf("/library/metadata/%s", key)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	container, err := c.parseResponse(body)
	if err != nil {
		return nil, err
	}

	if len(container.Metadata) == 0 {
		return nil, domain.ErrItemNotFound
	}

	item := MapItem(container.Metadata[0])
	return &item, nil
}

// DeleteItem removes an item and its files from the server. Irreversible.
func (c *Client) DeleteItem(ctx context.Context, key string) error {
	path := fmt.Sprintf("/library/metadata/%s", key)
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", key, err)
	}
	return nil
}
