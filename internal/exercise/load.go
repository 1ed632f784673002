package exercise

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a catalog.
//
//	title: Short Notes Trainer
//	exercises:
//	  - filename: budget_meeting.mp3
//	    text: Today we reviewed Q3 budget...
type catalogFile struct {
	Title     string     `yaml:"title"`
	Exercises []Exercise `yaml:"exercises"`
}

// Load reads a YAML catalog from r and validates it.
func Load(r io.Reader) (Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return Catalog{}, fmt.Errorf("%w: empty catalog file", ErrInvalid)
		}
		return Catalog{}, fmt.Errorf("unable to parse catalog: %w", err)
	}

	c := New(f.Title, f.Exercises...)
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("unable to read catalog: %w", err)
	}
	c, err := Load(bytes.NewReader(b))
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Marshal renders the catalog in the format accepted by Load.
func (c Catalog) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(catalogFile{Title: c.Title(), Exercises: c.exercises}); err != nil {
		return nil, fmt.Errorf("unable to encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("unable to encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}
