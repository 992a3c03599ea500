package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boq-resolver/internal/config"
	"github.com/sells-group/boq-resolver/internal/store"
)

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "boq.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return nil, eris.New("postgres database url is required (BOQ_STORE_DATABASE_URL)")
		}
		return store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
