//go:build integration

package valkey_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/samirrijal/poimap/internal/adapters/valkey"
)

func TestCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("POIMAP_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("POIMAP_TEST_VALKEY_ADDR not set")
	}
	ctx := context.Background()

	c, err := valkey.New(addr, "poimap-test:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := c.Set(ctx, "poi:id:1", []byte(`{"id":"1"}`), 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "poi:id:1")
	if err != nil || string(got) != `{"id":"1"}` {
		t.Fatalf("get: %q err=%v", got, err)
	}
	if err := c.Delete(ctx, "poi:id:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "poi:id:1"); !errors.Is(err, valkey.ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}
