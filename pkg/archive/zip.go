package archive

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

// Builder packs directory trees into zip files.
type Builder struct {
	level int
}

func New() *Builder {
	return &Builder{
		level: flate.BestCompression,
	}
}

// Build archives sourceDir into destFile in the background. Entries are
// placed under rootName/. The returned channel yields exactly one value
// (nil on success) and is then closed. On failure or cancellation
// destFile is removed.
func (b *Builder) Build(ctx context.Context, sourceDir, rootName, destFile string) <-chan error {
	result := make(chan error, 1)

	go func() {
		defer close(result)

		err := b.build(ctx, sourceDir, rootName, destFile)
		if err != nil {
			_ = os.Remove(destFile)
		}

		result <- err
	}()

	return result
}

func (b *Builder) build(ctx context.Context, sourceDir, rootName, destFile string) (err error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return errors.Wrap(err, "unable to stat source directory")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", sourceDir)
	}

	err = os.MkdirAll(filepath.Dir(destFile), 0755)
	if err != nil {
		return errors.Wrap(err, "unable to create archive directory")
	}

	zf, err := os.Create(destFile)
	if err != nil {
		return errors.Wrap(err, "unable to create archive file")
	}
	defer func() {
		if cerr := zf.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "unable to close archive file")
		}
	}()

	zw := zip.NewWriter(zf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, b.level)
	})

	err = addFiles(ctx, zw, destFile, sourceDir, rootName)
	if err != nil {
		_ = zw.Close()
		return err
	}

	err = zw.Close()
	if err != nil {
		return errors.Wrap(err, "unable to finalize archive")
	}

	return nil
}

func addFiles(ctx context.Context, w *zip.Writer, outfile, basePath, baseInZip string) error {
	absOut, _ := filepath.Abs(outfile)

	return filepath.WalkDir(basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		// the archive may be written into the tree being archived
		if abs, _ := filepath.Abs(p); abs == absOut {
			return nil
		}

		rel, err := filepath.Rel(basePath, p)
		if err != nil {
			return err
		}

		name := path.Join(baseInZip, filepath.ToSlash(rel))

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			header, err := zip.FileInfoHeader(info)
			if err != nil {
				return err
			}
			header.Name = name + "/"

			_, err = w.CreateHeader(header)
			return err
		}

		// symlinks, sockets, devices
		if !info.Mode().IsRegular() {
			return nil
		}

		return addFile(w, p, name, info)
	})
}

func addFile(w *zip.Writer, p, name string, info fs.FileInfo) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	zw, err := w.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(zw, f)
	if err != nil {
		return errors.Wrapf(err, "unable to add %s", p)
	}

	return nil
}
