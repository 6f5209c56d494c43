package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/you/buzoku/domain"
)

func TestRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := c.Get(ctx, "absent"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := c.Get(ctx, "k"); err != nil || v != "v" {
		t.Errorf("Get = %q, %v", v, err)
	}

	n, err := c.Incr(ctx, "counter")
	if err != nil || n != 1 {
		t.Fatalf("Incr = %d, %v", n, err)
	}
	if ttl, _ := c.TTL(ctx, "counter"); ttl >= 0 {
		t.Errorf("expected no ttl on fresh counter, got %v", ttl)
	}
	if err := c.Expire(ctx, "counter", 30*time.Second); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if ttl, _ := c.TTL(ctx, "counter"); ttl != 30*time.Second {
		t.Errorf("ttl = %v", ttl)
	}

	if err := c.Del(ctx); err != nil {
		t.Errorf("Del with no keys: %v", err)
	}
	if err := c.Del(ctx, "k", "counter", "absent"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if mr.Exists("k") || mr.Exists("counter") {
		t.Error("expected keys to be deleted")
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open("sqlite:"+filepath.Join(t.TempDir(), "buzoku.db"), false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, table := range []string{"users", "notification_preferences", "casbin_rule"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}

	if err := (SQLPinger{DB: db}).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
