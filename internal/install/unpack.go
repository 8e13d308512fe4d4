package install

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Unpack extracts archivePath into dir, emitting one EventExtract per
// entry. Supported formats are .zip, .tar and .gz. A .gz file is
// decompressed to a single file named after the archive without its .gz
// suffix, whose path is returned as inner. Cancelling ctx stops extraction
// before the next entry.
func Unpack(ctx context.Context, dir, archivePath string, progress ProgressFunc) (inner string, entries int, err error) {
	if progress == nil {
		progress = func(Event) {}
	}

	switch ext := strings.ToLower(filepath.Ext(archivePath)); ext {
	case ".zip":
		entries, err = unzip(ctx, dir, archivePath, progress)
		return "", entries, err
	case ".gz":
		inner, err = gunzip(ctx, dir, archivePath, progress)
		if err != nil {
			return "", 0, err
		}
		return inner, 1, nil
	case ".tar":
		entries, err = untar(ctx, dir, archivePath, progress)
		return "", entries, err
	default:
		return "", 0, fmt.Errorf("unsupported archive type %q", ext)
	}
}

// safeJoin resolves name under dir, rejecting paths that escape it
func safeJoin(dir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("illegal absolute path in archive: %s", name)
	}
	root := filepath.Clean(dir)
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return target, nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if mode&0600 == 0 {
		mode |= 0644
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func unzip(ctx context.Context, dir, archivePath string, progress ProgressFunc) (int, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open zip: %w", err)
	}
	defer zr.Close()

	count := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		target, err := safeJoin(dir, f.Name)
		if err != nil {
			return count, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
		} else {
			rc, err := f.Open()
			if err != nil {
				return count, fmt.Errorf("failed to read %s: %w", f.Name, err)
			}
			err = writeFile(target, rc, f.Mode())
			rc.Close()
			if err != nil {
				return count, fmt.Errorf("failed to extract %s: %w", f.Name, err)
			}
		}

		count++
		progress(Event{Kind: EventExtract, Entry: f.Name})
	}
	return count, nil
}

func gunzip(ctx context.Context, dir, archivePath string, progress ProgressFunc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	name := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	target, err := safeJoin(dir, name)
	if err != nil {
		return "", err
	}
	if err := writeFile(target, gzr, 0644); err != nil {
		return "", fmt.Errorf("failed to decompress %s: %w", filepath.Base(archivePath), err)
	}

	progress(Event{Kind: EventExtract, Entry: name})
	return target, nil
}

func untar(ctx context.Context, dir, archivePath string, progress ProgressFunc) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	tr := tar.NewReader(f)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read tar: %w", err)
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return count, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return count, fmt.Errorf("failed to extract %s: %w", hdr.Name, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return count, fmt.Errorf("illegal symlink target in archive: %s -> %s", hdr.Name, hdr.Linkname)
			}
			rel, err := filepath.Rel(dir, filepath.Join(filepath.Dir(target), hdr.Linkname))
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
				return count, fmt.Errorf("illegal symlink target in archive: %s -> %s", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return count, err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return count, fmt.Errorf("failed to create symlink %s: %w", hdr.Name, err)
			}
		default:
			continue
		}

		count++
		progress(Event{Kind: EventExtract, Entry: hdr.Name})
	}
	return count, nil
}
