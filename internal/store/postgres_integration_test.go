//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostgres_Integration(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pg, err := ConnectPostgres(ctx, databaseURL)
	require.NoError(t, err)
	defer pg.Close()

	// isolate from rows left by other runs
	prefix := fmt.Sprintf("it_%d_", time.Now().UnixNano())
	scoped := prefixed{Store: pg, prefix: prefix}
	exerciseStore(t, scoped)
}

// prefixed namespaces keys so repeated runs against one database do not collide.
type prefixed struct {
	Store
	prefix string
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.Store.Keys(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = k[len(p.prefix):]
	}
	return keys, nil
}
