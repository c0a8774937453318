package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/EINDEX/plex-cleaner/internal/domain"
)

const plexTVBaseURL = "https://plex.tv"

// AccountUser is a managed or shared viewer on the owner's account.
type AccountUser struct {
	ID       int
	Title    string
	Username string
	servers  []userServer
}

type userServer struct {
	machineIdentifier string
	accessToken       string
}

// ServerToken returns this viewer's access token for the server with the
// given machine identifier.
func (u AccountUser) ServerToken(machineIdentifier string) (string, bool) {
	for _, s := range u.servers {
		if s.machineIdentifier == machineIdentifier {
			return s.accessToken, true
		}
	}
	return "", false
}

// AccountClient talks to the plex.tv account API.
type AccountClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAccountClient creates a client for the plex.tv account API using the
// owner's token.
func NewAccountClient(token string, logger *slog.Logger) *AccountClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountClient{
		baseURL: plexTVBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// usersResponse mirrors the XML returned by GET /api/users.
type usersResponse struct {
	XMLName xml.Name `xml:"MediaContainer"`
	Users   []struct {
		ID       int    `xml:"id,attr"`
		Title    string `xml:"title,attr"`
		Username string `xml:"username,attr"`
		Servers  []struct {
			MachineIdentifier string `xml:"machineIdentifier,attr"`
			AccessToken       string `xml:"accessToken,attr"`
		} `xml:"Server"`
	} `xml:"User"`
}

// Users returns every managed and shared viewer on the owner's account,
// each carrying per-server access tokens.
func (a *AccountClient) Users(ctx context.Context) ([]AccountUser, error) {
	reqURL := fmt.Sprintf("%s/api/users", a.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", a.token)
	req.Header.Set("X-Plex-Client-Identifier", clientID)
	req.Header.Set("X-Plex-Product", "PlexCleaner")
	req.Header.Set("X-Plex-Version", "1.0")
	req.Header.Set("User-Agent", userAgent)

	a.logger.Debug("plex.tv request", "url", reqURL)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("plex.tv request failed", "error", err)
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

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("plex.tv request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed usersResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse users response: %w", err)
	}

	users := make([]AccountUser, 0, len(parsed.Users))
	for _, u := range parsed.Users {
		user := AccountUser{
			ID:       u.ID,
			Title:    u.Title,
			Username: u.Username,
		}
		for _, s := range u.Servers {
			user.servers = append(user.servers, userServer{
				machineIdentifier: s.MachineIdentifier,
				accessToken:       s.AccessToken,
			})
		}
		users = append(users, user)
	}

	a.logger.Info("loaded account users", "count", len(users))
	return users, nil
}
