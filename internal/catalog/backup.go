package catalog

import (
	"context"
	"fmt"
	"os"
)

// BackupTo writes a consistent copy of the catalog to dest, which must not
// exist yet.
func (s *Store) BackupTo(ctx context.Context, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("backup target %s already exists", dest)
	}
	return retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
			return fmt.Errorf("vacuum into %s: %w", dest, err)
		}
		return nil
	})
}
