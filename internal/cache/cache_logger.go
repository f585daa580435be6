package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateClassCache drops the cached row and every listing for a class.
// Called after every committed roster mutation and class update.
func InvalidateClassCache(ctx context.Context, cm *CacheManager, classID string) {
	SafeDelete(ctx, cm.Class, fmt.Sprintf("id:%s", classID), "promoted")
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("class:%s", classID))
	SafeInvalidatePattern(ctx, cm.Class, "list:*")
}

// InvalidateUserCache drops the admin-email list, the one cached user lookup.
func InvalidateUserCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.User, "admin-emails")
}
