// Package epubtest builds small EPUB archives for tests.
package epubtest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Book describes the archive Write produces.
type Book struct {
	Title  string
	Author string
	// OPFPath is the location of the package document inside the archive.
	// Defaults to OEBPS/content.opf.
	OPFPath string
	// NoOPF omits the package document entirely.
	NoOPF bool
	// CompressedMimetype writes the mimetype entry deflated and last, the
	// way a careless packer would.
	CompressedMimetype bool
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const packageXML = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>%[1]s</dc:title>
    <dc:creator opf:role="aut">%[2]s</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:0000</dc:identifier>
    <meta name="calibre:title_sort" content="%[1]s"/>
  </metadata>
  <manifest>
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
  </spine>
</package>
`

const chapterXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 1</title></head>
<body><h1>Chapter 1</h1><p>It was a dark and stormy night.</p></body>
</html>
`

// Write creates dir/name as an EPUB described by b and returns its path.
func Write(t testing.TB, dir, name string, b Book) string {
	t.Helper()

	if b.OPFPath == "" {
		b.OPFPath = "OEBPS/content.opf"
	}
	if b.Author == "" {
		b.Author = "Test Author"
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)

	add := func(name string, method uint16, body string) {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, body); err != nil {
			t.Fatal(err)
		}
	}

	if !b.CompressedMimetype {
		add("mimetype", zip.Store, "application/epub+zip")
	}
	add("META-INF/container.xml", zip.Deflate, fmt.Sprintf(containerXML, b.OPFPath))
	if !b.NoOPF {
		add(b.OPFPath, zip.Deflate, fmt.Sprintf(packageXML, escape(b.Title), escape(b.Author)))
	}
	dir2 := filepath.ToSlash(filepath.Dir(b.OPFPath))
	if dir2 == "." {
		dir2 = ""
	} else {
		dir2 += "/"
	}
	add(dir2+"chapter1.xhtml", zip.Deflate, chapterXHTML)
	if b.CompressedMimetype {
		add("mimetype", zip.Deflate, "application/epub+zip")
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}

// Entry is one member of an archive as read back by Entries.
type Entry struct {
	Name   string
	Method uint16
	Body   string
}

// Entries lists every member of the archive at path in order.
func Entries(t testing.TB, path string) []Entry {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var out []Entry
	for _, zf := range r.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, Entry{Name: zf.Name, Method: zf.Method, Body: string(body)})
	}
	return out
}

// Body returns the content of the named member, failing the test when it
// is missing.
func Body(t testing.TB, path, name string) string {
	t.Helper()
	for _, e := range Entries(t, path) {
		if e.Name == name {
			return e.Body
		}
	}
	t.Fatalf("%s: no entry %q", path, name)
	return ""
}
