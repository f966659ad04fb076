package firestore

import (
	"context"
	"errors"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names.
const (
	colBooks          = "books"
	colOrders         = "orders"
	colUsers          = "users"
	colSellerRequests = "sellerRequests"
	colWishlists      = "wishlists"
)

// Open connects to the project's default database. The caller owns the
// returned client and must Close it.
func Open(ctx context.Context, projectID, credentialsFile string) (*gfs.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gfs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client (project=%s): %w", projectID, err)
	}
	return client, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// each decodes every document of q into a fresh T and hands it to fn.
func each[T any](ctx context.Context, q gfs.Query, fn func(id string, doc *T)) error {
	it := q.Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		var doc T
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore: decode %s: %w", snap.Ref.ID, err)
		}
		fn(snap.Ref.ID, &doc)
	}
}

func count(ctx context.Context, q gfs.Query) (int, error) {
	it := q.Select().Documents(ctx)
	defer it.Stop()
	n := 0
	for {
		_, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}
