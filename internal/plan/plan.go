// Package plan reads and writes YAML plan files: the flattened work list
// of a wizard session, stored so it can be reviewed and applied later.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/ebookmeta/internal/template"
	"github.com/blackwell-systems/ebookmeta/internal/wizard"
	"gopkg.in/yaml.v3"
)

// Plan is a list of series to rewrite.
type Plan struct {
	Series []Series `yaml:"series"`
}

// Series is one named group of books sharing a format.
type Series struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
	Books  []Book `yaml:"books"`
}

// Book is one archive and its title. Relative paths are resolved against
// the directory of the plan file.
type Book struct {
	Path  string `yaml:"path"`
	Title string `yaml:"title"`
}

// FromState captures the series of a wizard state that are in use.
func FromState(s wizard.State) Plan {
	var p Plan
	for i := 0; i < s.Count && i < len(s.Series); i++ {
		t := s.Series[i].FieldTable()
		ps := Series{Name: t.Series, Format: t.Format}
		for row, path := range t.BookOrder {
			ps.Books = append(ps.Books, Book{Path: path, Title: t.BookTitle[row]})
		}
		p.Series = append(p.Series, ps)
	}
	return p
}

// Validate checks every format against the known placeholders and that
// every book names an archive.
func (p Plan) Validate() error {
	var errs []error
	for i, s := range p.Series {
		if err := template.Validate(s.Format, template.KeyPosition, template.KeyTitle, template.KeySeries); err != nil {
			errs = append(errs, fmt.Errorf("series %d (%s): %w", i+1, s.Name, err))
		}
		for j, b := range s.Books {
			if b.Path == "" {
				errs = append(errs, fmt.Errorf("series %d (%s): book %d has no path", i+1, s.Name, j+1))
			}
		}
	}
	return errors.Join(errs...)
}

// Jobs flattens the plan in series order, then book order.
func (p Plan) Jobs() []wizard.Job {
	var jobs []wizard.Job
	for _, s := range p.Series {
		se := wizard.Series{Name: s.Name, Format: s.Format}
		for _, b := range s.Books {
			se.Books = append(se.Books, wizard.Book{Path: b.Path, Title: b.Title})
		}
		t := se.FieldTable()
		for row, path := range t.BookOrder {
			jobs = append(jobs, wizard.Job{Path: path, Fields: t.Fields(row)})
		}
	}
	return jobs
}

// Len returns the number of books in the plan.
func (p Plan) Len() int {
	n := 0
	for _, s := range p.Series {
		n += len(s.Books)
	}
	return n
}

// Parse decodes YAML bytes into a plan.
func Parse(data []byte) (Plan, error) {
	var p Plan
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("parsing plan YAML: %w", err)
	}
	return p, nil
}

// Load reads a plan file and resolves relative book paths against its
// directory.
func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("reading plan: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Plan{}, err
	}
	base := filepath.Dir(path)
	for i := range p.Series {
		for j, b := range p.Series[i].Books {
			if b.Path != "" && !filepath.IsAbs(b.Path) {
				p.Series[i].Books[j].Path = filepath.Join(base, b.Path)
			}
		}
	}
	return p, nil
}

// Marshal encodes a plan to YAML bytes.
func Marshal(p Plan) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the plan to a file on disk.
func Save(path string, p Plan) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
