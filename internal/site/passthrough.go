package site

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// copyPassthrough copies every configured source into the output directory and
// returns the number of files written. Missing sources are skipped with a debug log.
func copyPassthrough(ctx context.Context, baseDir, output string, entries []config.PassthroughConfig) (int, error) {
	copied := 0
	for _, e := range entries {
		src := resolvePath(baseDir, e.From)
		dst := filepath.Join(output, filepath.FromSlash(e.To))

		info, err := os.Stat(src)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Debug("Passthrough source missing", logfields.Path(src))
				continue
			}
			return copied, passthroughError(err, src)
		}

		if !info.IsDir() {
			if err := copyFile(src, dst); err != nil {
				return copied, passthroughError(err, src)
			}
			copied++
			continue
		}

		err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			if err := copyFile(p, filepath.Join(dst, rel)); err != nil {
				return err
			}
			copied++
			return nil
		})
		if err != nil {
			return copied, passthroughError(err, src)
		}
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return atomic.WriteFile(dst, f)
}

func passthroughError(err error, src string) error {
	return errors.FileSystemError("passthrough copy failed").WithCause(err).WithContext("path", src).Build()
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
