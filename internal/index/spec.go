package index

import (
	"os"
	"strings"

	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultSpec is the built-in set of indices shown on the growth page.
func DefaultSpec() types.IndexSpec {
	return types.IndexSpec{
		{Name: "S&P 500", Symbol: "^GSPC"},
		{Name: "NASDAQ Composite", Symbol: "^IXIC"},
		{Name: "Dow Jones", Symbol: "^DJI"},
		{Name: "Russell 2000", Symbol: "^RUT"},
		{Name: "TA-125", Symbol: "^TA125.TA"},
	}
}

type specFile struct {
	Indices types.IndexSpec `yaml:"indices"`
}

// LoadSpec reads an index list from a YAML file. An empty path returns DefaultSpec.
//
//	indices:
//	  - name: S&P 500
//	    symbol: ^GSPC
func LoadSpec(path string) (types.IndexSpec, error) {
	if path == "" {
		return DefaultSpec(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read indices file %s", path)
	}

	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse indices file %s", path)
	}

	if err := Validate(f.Indices); err != nil {
		return nil, errors.Wrapf(err, "invalid indices file %s", path)
	}
	return f.Indices, nil
}

// Validate checks that the spec is non-empty and names and symbols are unique.
func Validate(spec types.IndexSpec) error {
	if len(spec) == 0 {
		return errors.New("no indices configured")
	}

	names := make(map[string]struct{}, len(spec))
	symbols := make(map[string]struct{}, len(spec))
	for i, idx := range spec {
		name := strings.TrimSpace(idx.Name)
		symbol := strings.TrimSpace(idx.Symbol)
		if name == "" || symbol == "" {
			return errors.Errorf("entry %d needs both name and symbol", i)
		}
		if _, dup := names[name]; dup {
			return errors.Errorf("duplicate index name %q", name)
		}
		if _, dup := symbols[symbol]; dup {
			return errors.Errorf("duplicate index symbol %q", symbol)
		}
		names[name] = struct{}{}
		symbols[symbol] = struct{}{}
	}
	return nil
}
