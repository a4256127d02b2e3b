package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gosuda/kira/internal/domain"
)

// columnsFile is the on-disk layout of KIRA_COLUMNS_FILE:
//
//	boards:
//	  shopping:
//	    - key: to_buy
//	      title: To buy
//	    - key: bought
//	      title: Bought
type columnsFile struct {
	Boards map[domain.BoardType][]domain.Column `yaml:"boards"`
}

// LoadColumns reads a column layout file. Board types the file does not
// mention keep their default columns.
func LoadColumns(path string) (domain.ColumnConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadColumns: %w", err)
	}

	cfg, err := ParseColumns(data)
	if err != nil {
		return nil, fmt.Errorf("config.LoadColumns: %s: %w", path, err)
	}
	return cfg, nil
}

// ParseColumns decodes a column layout document over the defaults.
func ParseColumns(data []byte) (domain.ColumnConfig, error) {
	var f columnsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	cfg := domain.DefaultColumnConfig()
	for boardType, columns := range f.Boards {
		if err := validateColumns(boardType, columns); err != nil {
			return nil, err
		}
		cfg[boardType] = columns
	}
	return cfg, nil
}

func validateColumns(boardType domain.BoardType, columns []domain.Column) error {
	if !boardType.Valid() {
		return fmt.Errorf("unknown board type %q", boardType)
	}
	if len(columns) == 0 {
		return fmt.Errorf("board type %q: at least one column is required", boardType)
	}

	seen := make(map[domain.ColumnKey]bool, len(columns))
	for _, c := range columns {
		if c.Key == "" {
			return errors.New("column key must not be empty")
		}
		if seen[c.Key] {
			return fmt.Errorf("board type %q: duplicate column %q", boardType, c.Key)
		}
		seen[c.Key] = true
	}
	return nil
}
