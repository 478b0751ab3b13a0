// Package pricefile reads daily price series from flags and files.
package pricefile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoPrices          = errors.New("no prices found")
	ErrUnsupportedFormat = errors.New("unsupported price file format")
)

// Series is a parsed price series. Dates is either empty or aligned with Prices.
type Series struct {
	Dates  []string
	Prices []decimal.Decimal
}

func (s *Series) Floats() []float64 {
	out := make([]float64, len(s.Prices))
	for i, p := range s.Prices {
		out[i] = p.InexactFloat64()
	}
	return out
}

func (s *Series) Len() int { return len(s.Prices) }

// ParseList parses prices separated by commas and/or whitespace.
func ParseList(raw string) (*Series, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	s := &Series{}
	for i, f := range fields {
		p, err := decimal.NewFromString(f)
		if err != nil {
			return nil, fmt.Errorf("price %d %q: %w", i, f, err)
		}
		s.Prices = append(s.Prices, p)
	}
	if s.Len() == 0 {
		return nil, ErrNoPrices
	}
	return s, nil
}

// Load reads a price file, choosing the format from its extension.
func Load(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json", ".yaml", ".yml":
		return ReadYAML(f)
	case ".txt":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return ParseList(string(data))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// ReadCSV accepts either one price per row or date,price rows. A first row
// whose price column is not numeric is treated as a header.
func ReadCSV(r io.Reader) (*Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	s := &Series{}
	for i, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		cell := rec[len(rec)-1]
		p, err := decimal.NewFromString(strings.TrimSpace(cell))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("csv row %d: price %q: %w", i+1, cell, err)
		}
		if len(rec) >= 2 {
			s.Dates = append(s.Dates, strings.TrimSpace(rec[0]))
		}
		s.Prices = append(s.Prices, p)
	}
	if len(s.Dates) != 0 && len(s.Dates) != len(s.Prices) {
		return nil, fmt.Errorf("csv mixes dated and undated rows")
	}
	if s.Len() == 0 {
		return nil, ErrNoPrices
	}
	return s, nil
}

type datedPrice struct {
	Date  string `yaml:"date"`
	Price string `yaml:"price"`
}

// ReadYAML reads a YAML or JSON document holding either a list of numbers,
// a list of {date, price} objects, or an object with a "prices" key holding
// one of those lists.
func ReadYAML(r io.Reader) (*Series, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoPrices
		}
		return nil, fmt.Errorf("decode price file: %w", err)
	}

	node := &doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == yaml.MappingNode {
		var wrapped struct {
			Prices yaml.Node `yaml:"prices"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode price file: %w", err)
		}
		node = &wrapped.Prices
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: expected a list of prices", ErrUnsupportedFormat)
	}

	s := &Series{}
	for i, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			p, err := decimal.NewFromString(item.Value)
			if err != nil {
				return nil, fmt.Errorf("price %d %q: %w", i, item.Value, err)
			}
			s.Prices = append(s.Prices, p)
		case yaml.MappingNode:
			var dp datedPrice
			if err := item.Decode(&dp); err != nil {
				return nil, fmt.Errorf("price %d: %w", i, err)
			}
			p, err := decimal.NewFromString(dp.Price)
			if err != nil {
				return nil, fmt.Errorf("price %d %q: %w", i, dp.Price, err)
			}
			s.Dates = append(s.Dates, dp.Date)
			s.Prices = append(s.Prices, p)
		default:
			return nil, fmt.Errorf("price %d: unexpected value", i)
		}
	}
	if len(s.Dates) != 0 && len(s.Dates) != len(s.Prices) {
		return nil, fmt.Errorf("price file mixes dated and undated entries")
	}
	if s.Len() == 0 {
		return nil, ErrNoPrices
	}
	return s, nil
}
