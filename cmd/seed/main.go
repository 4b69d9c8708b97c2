// Command seed fills the configured store with demo users and posts.
package main

import (
	"context"
	"errors"
	"flag"

	"joints/internal/config"
	"joints/internal/observability"
	"joints/internal/repositories"
	"joints/internal/seed"
	"joints/internal/store"
)

func main() {
	numUsers := flag.Int("users", 12, "Number of users to create")
	numPosts := flag.Int("posts", 40, "Number of posts to create")
	seedValue := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		observability.Log.WithError(err).Fatal("failed to load configuration")
	}
	observability.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	ctx := context.Background()
	st, locker, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		observability.Log.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("failed to open store")
	}
	defer closeFn()

	opts := seed.Options{Users: *numUsers, Posts: *numPosts, Seed: *seedValue}
	seeder := seed.NewSeeder(
		repositories.NewStoreUserRepository(st, locker),
		repositories.NewStorePostRepository(st, locker),
		opts,
	)
	summary, err := seeder.Run(ctx, opts)
	if err != nil {
		observability.Log.WithError(err).Fatal("seeding failed")
	}
	observability.Log.WithField("password", seed.DefaultPassword).
		WithField("first_user", summary.Users[0]).
		Info("all seeded accounts share one password")
}

// openBackend opens the server's store and lock backend, so the seeder's
// writes are serialized with those of a running server.
func openBackend(ctx context.Context, cfg *config.Config) (store.Store, store.Locker, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		return nil, nil, nil, errors.New("seeding needs a persistent store")
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	locker, client, err := store.OpenLocker(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {}
	if client != nil {
		closeFn = func() { client.Close() }
	}
	return st, locker, closeFn, nil
}
