package plex

import (
	"context"
	"fmt"
)

// ViewerConnections builds one authenticated client per authorized viewer
// of the owner's server: every managed/shared user with access to it, then
// the owner itself last. The owner's identity is fetched first so user
// tokens can be matched to this server.
func ViewerConnections(ctx context.Context, owner *Client, account *AccountClient) ([]*Client, error) {
	if owner.machineIdentifier == "" {
		if err := owner.FetchIdentity(ctx); err != nil {
			return nil, fmt.Errorf("fetching server identity: %w", err)
		}
	}

	users, err := account.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing account users: %w", err)
	}

	conns := make([]*Client, 0, len(users)+1)
	for _, u := range users {
		token, ok := u.ServerToken(owner.machineIdentifier)
		if !ok {
			owner.logger.Warn("viewer has no access to this server", "user", u.Title)
			continue
		}
		conns = append(conns, owner.WithToken(token))
	}

	conns = append(conns, owner)
	return conns, nil
}
