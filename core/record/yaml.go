package record

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type yamlFile struct {
	Records []Record `yaml:"records"`
}

// LoadYAML decodes and validates a records document.
func LoadYAML(r io.Reader) ([]Record, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDirectory
		}
		return nil, fmt.Errorf("decode records yaml: %w", err)
	}
	if err := Validate(f.Records); err != nil {
		return nil, err
	}
	return f.Records, nil
}

// LoadYAMLFile reads records from a YAML file on disk.
func LoadYAMLFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// DefaultSeed returns the embedded demo records.
func DefaultSeed() []Record {
	recs, err := LoadYAML(bytes.NewReader(seedYAML))
	if err != nil {
		panic(fmt.Sprintf("record: embedded seed is invalid: %v", err))
	}
	return recs
}

// MarshalYAML encodes records in the format LoadYAML reads.
func MarshalYAML(recs []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlFile{Records: recs}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
