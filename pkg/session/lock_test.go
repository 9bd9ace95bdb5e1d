package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/algoviz/pkg/registry"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(registry.New())
	ctx := context.Background()
	count := 10000

	// Operations on unknown sessions still take and release a lock.
	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.WithLock(ctx, sid, func(context.Context, *Session) error { return nil })
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
