package media

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
)

// ErrNotExist is returned by Open for unknown names.
var ErrNotExist = os.ErrNotExist

// Disk keeps uploads as a flat directory of files.
type Disk struct {
	dir string
	now func() time.Time
}

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", dir)
	}
	return &Disk{dir: dir, now: time.Now}, nil
}

func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) Store(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	// Same millisecond and same filename: move the timestamp forward.
	ts := d.now()
	var dst *os.File
	var name string
	for i := 0; i < 1000; i++ {
		name = objectName(ts, file.Filename)
		dst, err = os.OpenFile(filepath.Join(d.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", errors.Wrapf(err, "create %s", name)
		}
		ts = ts.Add(time.Millisecond)
	}
	if dst == nil {
		return "", errors.Errorf("no free name for %s", file.Filename)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", errors.Wrapf(err, "write %s", name)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", errors.Wrapf(err, "write %s", name)
	}

	logger.Info(ctx, "📁 Media stored", zap.String("name", name), zap.Int64("size", file.Size))
	return URLPrefix + name, nil
}

func (d *Disk) Remove(ctx context.Context, path string) error {
	name := nameFromPath(path)
	if name == "" {
		logger.Warn(ctx, "⚠️ Ignoring media path outside uploads", zap.String("path", path))
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %s", name)
	}
	if err == nil {
		logger.Info(ctx, "🗑️ Media removed", zap.String("name", name))
	}
	return nil
}

func (d *Disk) Open(ctx context.Context, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotExist
	}
	f, err := os.Open(filepath.Join(d.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, errors.Wrapf(err, "open %s", name)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", name)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotExist
	}
	return &Object{Body: f, Size: info.Size(), ContentType: contentType(name, "")}, nil
}
