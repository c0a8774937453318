package domain

import "context"

// LibraryBrowser searches one viewer's view of the library.
type LibraryBrowser interface {
	// SearchWatched returns all items of the given raw type that have any
	// watch signal at this connection (i.e. are not completely unwatched).
	SearchWatched(ctx context.Context, rawType string) ([]Item, error)
}

// ItemFetcher loads a single item by its stable key.
type ItemFetcher interface {
	FetchItem(ctx context.Context, key string) (*Item, error)
}

// ItemDeleter removes an item from the library. Deletion is irreversible.
type ItemDeleter interface {
	DeleteItem(ctx context.Context, key string) error
}
