package epub

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MimeType is the fixed content of the leading mimetype entry.
const MimeType = "application/epub+zip"

// PackageDocument is the metadata file name looked up after extraction.
const PackageDocument = "content.opf"

// Extract unpacks every entry of the archive at src under dir, keeping
// relative paths. Entries that would escape dir are skipped.
func Extract(src, dir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return ioErr("open archive", src, err)
	}
	defer r.Close()

	root := filepath.Clean(dir) + string(os.PathSeparator)
	for _, zf := range r.File {
		dest := filepath.Join(dir, zf.Name)
		if !strings.HasPrefix(dest, root) {
			continue
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return ioErr("extract", zf.Name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return ioErr("extract", zf.Name, err)
		}
		if err := extractFile(zf, dest); err != nil {
			return ioErr("extract", zf.Name, err)
		}
	}
	return nil
}

func extractFile(zf *zip.File, dest string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FindPackageDocument returns the path of the first file named exactly
// content.opf under dir, in lexical walk order.
func FindPackageDocument(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == PackageDocument {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", ioErr("search", dir, err)
	}
	if found == "" {
		return "", ErrMetadataNotFound
	}
	return found, nil
}

// Pack writes the tree under dir as an EPUB at dst. The first entry is
// always a stored mimetype; every other file is deflated under its
// slash-separated path relative to dir. A mimetype file found in the tree
// is not written twice.
func Pack(dir, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return ioErr("create archive", dst, err)
	}
	if err := pack(dir, f); err != nil {
		f.Close()
		return err
	}
	return ioErr("close archive", dst, f.Close())
}

func pack(dir string, out io.Writer) error {
	w := zip.NewWriter(out)

	mw, err := w.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return ioErr("write entry", "mimetype", err)
	}
	if _, err := io.WriteString(mw, MimeType); err != nil {
		return ioErr("write entry", "mimetype", err)
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "mimetype" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = rel
		header.Method = zip.Deflate

		fw, err := w.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(fw, src)
		return err
	})
	if err != nil {
		return ioErr("write archive", dir, err)
	}
	return ioErr("finish archive", dir, w.Close())
}
