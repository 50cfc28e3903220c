package health

import (
	"context"
	"fmt"
	"os"

	"mercator-hq/backupkeeper/pkg/namespace"
	"mercator-hq/backupkeeper/pkg/retention"
)

// StoreCheck verifies the store answers a root listing.
func StoreCheck(store namespace.Store) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := store.ListChildren(ctx, namespace.RootID); err != nil {
			return fmt.Errorf("store unreachable: %w", err)
		}
		return nil
	}
}

// PolicyCheck verifies the policy document at path loads.
func PolicyCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		_, err := retention.LoadPolicyFile(path)
		return err
	}
}

// DirCheck verifies path is an existing directory.
func DirCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	}
}
