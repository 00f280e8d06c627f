package library

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"

	"github.com/vango-dev/querysync/internal/errors"
)

//go:embed sample.json
var sampleJSON []byte

// SampleRows returns the built-in sample dataset.
func SampleRows() []ListItem {
	rows, err := ParseRows(bytes.NewReader(sampleJSON))
	if err != nil {
		panic(err)
	}
	return rows
}

// LoadFixture reads a JSON array of rows from path.
func LoadFixture(path string) ([]ListItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("Q032").
			WithDetail("Cannot open " + path).
			Wrap(err)
	}
	defer f.Close()

	rows, err := ParseRows(f)
	if err != nil {
		return nil, errors.FromError(err, "Q032").
			WithDetail("Cannot parse " + path)
	}
	return rows, nil
}

// ParseRows decodes a JSON array of rows.
func ParseRows(r io.Reader) ([]ListItem, error) {
	var rows []ListItem
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, errors.New("Q032").Wrap(err)
	}
	return rows, nil
}
