package main

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/bookmarket/internal/config"
	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/sellerrequest"
	domwishlist "github.com/Zhima-Mochi/bookmarket/internal/domain/wishlist"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/firestore"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/mongo"
)

// stores holds one repository per collection plus the handle that owns
// their connection.
type stores struct {
	orders         domorder.Repository
	books          dombook.Repository
	accounts       domaccount.Repository
	sellerRequests sellerrequest.Repository
	wishlists      domwishlist.Repository
	close          func(context.Context) error
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return &stores{
			orders:         memory.NewOrderRepository(),
			books:          memory.NewBookRepository(),
			accounts:       memory.NewAccountRepository(),
			sellerRequests: memory.NewSellerRequestRepository(),
			wishlists:      memory.NewWishlistRepository(),
			close:          func(context.Context) error { return nil },
		}, nil

	case config.StoreFirestore:
		client, err := firestore.Open(ctx, cfg.GCPProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return &stores{
			orders:         firestore.NewOrderRepository(client),
			books:          firestore.NewBookRepository(client),
			accounts:       firestore.NewAccountRepository(client),
			sellerRequests: firestore.NewSellerRequestRepository(client),
			wishlists:      firestore.NewWishlistRepository(client),
			close:          func(context.Context) error { return client.Close() },
		}, nil

	case config.StoreMongo:
		client, db, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			orders:         mongo.NewOrderRepository(db),
			books:          mongo.NewBookRepository(db),
			accounts:       mongo.NewAccountRepository(db),
			sellerRequests: mongo.NewSellerRequestRepository(db),
			wishlists:      mongo.NewWishlistRepository(db),
			close:          client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
