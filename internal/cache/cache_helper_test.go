package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, "class:"), mr
}

func TestCacheHelperGetSet(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	type row struct {
		ClassID string `json:"class_id"`
		Title   string `json:"title"`
	}

	if err := helper.Set(ctx, "id:123456", row{ClassID: "123456", Title: "Zotero"}, time.Minute); err != nil {
		t.Fatalf("Set = %v, want nil", err)
	}

	var got row
	if err := helper.Get(ctx, "id:123456", &got); err != nil {
		t.Fatalf("Get = %v, want nil", err)
	}
	if got.ClassID != "123456" || got.Title != "Zotero" {
		t.Fatalf("Get = %+v, want the stored row", got)
	}

	if err := helper.Get(ctx, "id:000000", &got); err != ErrCacheNotFound {
		t.Fatalf("Get missing key = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelperDelete(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	_ = helper.Set(ctx, "id:123456", "x", time.Minute)
	_ = helper.Set(ctx, "id:654321", "y", time.Minute)

	if err := helper.Delete(ctx, "id:123456", "id:654321"); err != nil {
		t.Fatalf("Delete = %v, want nil", err)
	}

	var got string
	if err := helper.Get(ctx, "id:123456", &got); err != ErrCacheNotFound {
		t.Fatalf("Get after delete = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelperInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	_ = helper.Set(ctx, "list:page1", "a", time.Minute)
	_ = helper.Set(ctx, "list:page2", "b", time.Minute)
	_ = helper.Set(ctx, "id:123456", "c", time.Minute)

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("InvalidatePattern = %v, want nil", err)
	}

	var got string
	if err := helper.Get(ctx, "list:page1", &got); err != ErrCacheNotFound {
		t.Fatalf("Get invalidated key = %v, want ErrCacheNotFound", err)
	}
	// Keys outside the pattern survive.
	if err := helper.Get(ctx, "id:123456", &got); err != nil {
		t.Fatalf("Get surviving key = %v, want nil", err)
	}
}

func TestCacheHelperNilClient(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(nil, "class:")

	// Every operation degrades gracefully without Redis.
	if err := helper.Set(ctx, "id:123456", "x", time.Minute); err != nil {
		t.Fatalf("Set without client = %v, want nil", err)
	}
	var got string
	if err := helper.Get(ctx, "id:123456", &got); err != ErrCacheNotAvailable {
		t.Fatalf("Get without client = %v, want ErrCacheNotAvailable", err)
	}
	if err := helper.Delete(ctx, "id:123456"); err != nil {
		t.Fatalf("Delete without client = %v, want nil", err)
	}
}

func TestInvalidateClassCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cm := NewCacheManager(client)

	// Every key shape the class read paths cache under.
	_ = cm.Class.Set(ctx, "id:123456", "row", time.Minute)
	_ = cm.Class.Set(ctx, "promoted", "shelf", time.Minute)
	_ = cm.Class.Set(ctx, "list:open||||20|0||", "page", time.Minute)
	_ = cm.Exists.Set(ctx, "class:123456", true, time.Minute)
	_ = cm.Class.Set(ctx, "id:654321", "other", time.Minute)

	InvalidateClassCache(ctx, cm, "123456")

	var got string
	for _, key := range []string{"id:123456", "promoted", "list:open||||20|0||"} {
		if err := cm.Class.Get(ctx, key, &got); err != ErrCacheNotFound {
			t.Errorf("Get(%q) after invalidation = %v, want ErrCacheNotFound", key, err)
		}
	}
	var exists bool
	if err := cm.Exists.Get(ctx, "class:123456", &exists); err != ErrCacheNotFound {
		t.Errorf("existence probe after invalidation = %v, want ErrCacheNotFound", err)
	}
	// Other classes are untouched.
	if err := cm.Class.Get(ctx, "id:654321", &got); err != nil {
		t.Errorf("Get(id:654321) = %v, want nil", err)
	}
}

func TestInvalidateUserCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cm := NewCacheManager(client)

	_ = cm.User.Set(ctx, "admin-emails", []string{"admin@library.test"}, time.Minute)

	InvalidateUserCache(ctx, cm)

	var emails []string
	if err := cm.User.Get(ctx, "admin-emails", &emails); err != ErrCacheNotFound {
		t.Errorf("Get(admin-emails) after invalidation = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheOrExecute(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]string{"title": "Zotero"}, nil
	}

	var first map[string]string
	if err := helper.CacheOrExecute(ctx, "id:123456", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute = %v, want nil", err)
	}
	if calls != 1 || first["title"] != "Zotero" {
		t.Fatalf("first call: calls=%d result=%v", calls, first)
	}

	// The async cache write may still be in flight; wait for the key.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := helper.Exists(ctx, "id:123456"); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	var second map[string]string
	if err := helper.CacheOrExecute(ctx, "id:123456", &second, time.Minute, fetch); err != nil {
		t.Fatalf("second CacheOrExecute = %v, want nil", err)
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1 (second read served from cache)", calls)
	}
}
