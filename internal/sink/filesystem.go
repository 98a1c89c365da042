package sink

import (
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// FilesystemSink writes every output below BaseDir using temp-write + rename.
type FilesystemSink struct {
	BaseDir string
	Perm    os.FileMode
}

// NewFilesystemSink returns a sink rooted at baseDir.
func NewFilesystemSink(baseDir string) *FilesystemSink {
	return &FilesystemSink{BaseDir: baseDir, Perm: 0o644}
}

func (s *FilesystemSink) Mode() Mode { return ModeFilesystem }

// Deliver writes outputs in order. On failure the already-written outputs
// stay in place; the caller decides about cleanup.
func (s *FilesystemSink) Deliver(ctx context.Context, artifact Artifact) (*Result, error) {
	res := &Result{Mode: ModeFilesystem, Sheet: artifact.Sheet, Kind: artifact.Kind}
	for _, out := range artifact.Outputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		target := s.resolve(out.Path)
		if err := WriteFileAtomic(target, out.Data, s.Perm); err != nil {
			return res, errors.WrapError(err, errors.CategoryWrite, "failed to write "+string(out.Role)).
				ForSheet(artifact.Sheet).
				WithContext("path", target).Build()
		}
		res.Written = append(res.Written, target)
		res.Bytes += len(out.Data)
	}
	return res, nil
}

func (s *FilesystemSink) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) || s.BaseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(s.BaseDir, p)
}

// WriteFileAtomic creates the parent directory, writes data to a temp file in
// the same directory and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
