package epub

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blackwell-systems/ebookmeta/internal/opf"
	"github.com/blackwell-systems/ebookmeta/internal/util"
	"golang.org/x/text/unicode/norm"
)

// Options tune a single rewrite.
type Options struct {
	// Backup copies the source to <path>.bak before it is replaced.
	Backup bool
	// Rename moves the result to a file named after the resolved format.
	Rename bool
	Logger *slog.Logger
}

// Result describes a finished rewrite.
type Result struct {
	Path   string // final location, differs from the source when renamed
	SHA256 string
	Report opf.Report
}

// Rewrite patches the package document of the EPUB at path with f and
// repacks the archive over the original location.
//
// The archive is extracted into a scratch directory that is removed on
// every return path. The new archive is written next to the source and
// renamed over it only once complete, so a failure while packing leaves
// the original untouched. The new archive keeps the source's permission
// bits. A symlinked path is resolved first so the link keeps pointing at
// the rewritten file.
func Rewrite(ctx context.Context, path string, f opf.Fields, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	scratch, err := os.MkdirTemp("", "ebookmeta-*")
	if err != nil {
		return Result{}, ioErr("create scratch dir", os.TempDir(), err)
	}
	defer os.RemoveAll(scratch)

	src := path
	if target, err := filepath.EvalSymlinks(path); err == nil {
		src = target
	}
	if err := Extract(src, scratch); err != nil {
		return Result{}, err
	}
	st, err := os.Stat(src)
	if err != nil {
		return Result{}, ioErr("stat", src, err)
	}

	opfPath, err := FindPackageDocument(scratch)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	doc, err := os.ReadFile(opfPath)
	if err != nil {
		return Result{}, ioErr("read", PackageDocument, err)
	}
	report := opf.Inspect(doc)
	if missing := report.Missing(); len(missing) > 0 {
		log.Debug("metadata targets absent", "path", path, "missing", missing)
	}

	patched, err := opf.Patch(doc, f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(opfPath, patched, 0644); err != nil {
		return Result{}, ioErr("write", PackageDocument, err)
	}

	if opts.Backup {
		if err := backup(src); err != nil {
			return Result{}, err
		}
	}

	dst := src
	if opts.Rename && f.Format != "" {
		resolved, err := f.Resolve()
		if err != nil {
			return Result{}, err
		}
		dst = RenamedPath(src, resolved)
		if dst != src {
			if _, err := os.Stat(dst); err == nil {
				return Result{}, ioErr("rename", dst, os.ErrExist)
			}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(src), ".ebookmeta-*.epub")
	if err != nil {
		return Result{}, ioErr("create archive", filepath.Dir(src), err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(st.Mode().Perm()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Result{}, ioErr("chmod", tmpName, err)
	}
	tmp.Close()

	if err := Pack(scratch, tmpName); err != nil {
		os.Remove(tmpName)
		return Result{}, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return Result{}, ioErr("replace", dst, err)
	}
	if dst != src {
		if err := os.Remove(src); err != nil {
			return Result{}, ioErr("remove", src, err)
		}
	}

	sum, err := util.SHA256File(dst)
	if err != nil {
		return Result{}, ioErr("hash", dst, err)
	}
	log.Info("archive rewritten", "path", path, "dest", dst, "sha256", sum)
	if dst == src {
		dst = path
	}
	return Result{Path: dst, SHA256: sum, Report: report}, nil
}

func backup(path string) error {
	bak := path + ".bak"
	if err := util.CopyFile(path, bak); err != nil {
		return ioErr("backup", bak, err)
	}
	want, err := util.SHA256File(path)
	if err != nil {
		return ioErr("hash", path, err)
	}
	got, err := util.SHA256File(bak)
	if err != nil {
		return ioErr("hash", bak, err)
	}
	if got != want {
		return ioErr("backup", bak, fmt.Errorf("checksum mismatch"))
	}
	return nil
}

const maxNameBytes = 200

// RenamedPath returns the path in the same directory as path whose base
// name is name made safe for common file systems, keeping the extension.
func RenamedPath(path, name string) string {
	safe := SanitizeName(name)
	if safe == "" {
		return path
	}
	return filepath.Join(filepath.Dir(path), safe+filepath.Ext(path))
}

// SanitizeName replaces characters that are invalid in file names on
// common platforms and trims the result.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")
	for len(out) > maxNameBytes {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	return strings.TrimRight(out, " .")
}
