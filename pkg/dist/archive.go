package dist

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// writeTarGz archives srcDir into a gzip-compressed tarball at outPath.
// Entries are rooted under prefix so the archive unpacks into a single
// version-named directory.
func writeTarGz(srcDir, prefix, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Errorf("creating archive file: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	err = walkArchiveEntries(srcDir, func(rel string, info fs.FileInfo, path string) error {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return errors.Errorf("building tar header for %s: %w", rel, err)
		}
		header.Name = prefix + "/" + rel
		if info.IsDir() {
			header.Name += "/"
		}
		if err := tw.WriteHeader(header); err != nil {
			return errors.Errorf("writing tar header for %s: %w", rel, err)
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return errors.Errorf("archiving %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return errors.Errorf("finalizing tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return errors.Errorf("finalizing gzip stream: %w", err)
	}
	return out.Close()
}

// writeZip archives srcDir into a zip file at outPath, rooted under prefix
func writeZip(srcDir, prefix, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Errorf("creating archive file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	err = walkArchiveEntries(srcDir, func(rel string, info fs.FileInfo, path string) error {
		if info.IsDir() {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return errors.Errorf("building zip header for %s: %w", rel, err)
		}
		header.Name = prefix + "/" + rel
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return errors.Errorf("writing zip header for %s: %w", rel, err)
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return errors.Errorf("archiving %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return errors.Errorf("finalizing zip stream: %w", err)
	}
	return out.Close()
}

// walkArchiveEntries visits every entry under srcDir with its slash-form
// relative path, skipping the root itself
func walkArchiveEntries(srcDir string, fn func(rel string, info fs.FileInfo, path string) error) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return errors.Errorf("resolving relative path: %w", err)
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return errors.Errorf("stating %s: %w", path, err)
		}
		return fn(filepath.ToSlash(rel), info, path)
	})
}
