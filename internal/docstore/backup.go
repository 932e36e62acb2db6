package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
)

// Backup copies every collection file and the settings document into
// <dir>/backups/<timestamp>/ and returns that directory.
func (s *Store) Backup(ctx context.Context, now time.Time) (string, error) {
	dst := filepath.Join(s.dir, "backups", now.UTC().Format("20060102-150405"))
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", fmt.Errorf("backup mkdir: %w", err)
	}
	files := make([]string, 0, len(storage.Collections)+1)
	for _, coll := range storage.Collections {
		files = append(files, filepath.Base(s.path(coll)))
	}
	files = append(files, settingsFile)

	copied := 0
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ok, err := copyFile(filepath.Join(s.dir, name), filepath.Join(dst, name))
		if err != nil {
			return "", fmt.Errorf("backup %s: %w", name, err)
		}
		if ok {
			copied++
		}
	}
	s.logger.Info("docstore backup written", logx.String("dir", dst), logx.Int("files", copied))
	return dst, nil
}

func copyFile(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return false, err
	}
	return true, out.Close()
}
