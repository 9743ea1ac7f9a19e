package poison

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Params is the full parameter record of one poisoning run. It is persisted
// verbatim in the dataset metadata so downstream tooling can check provenance.
type Params struct {
	Method        string  `yaml:"poison_method" json:"poison_method"`
	Ratio         float64 `yaml:"ratio" json:"ratio"`
	Opacity       float64 `yaml:"opacity" json:"opacity"`
	Variance      float64 `yaml:"variance" json:"variance"`
	TargetClasses []int   `yaml:"target_classes" json:"target_classes"`
	SourceClass   *int    `yaml:"source_class,omitempty" json:"source_class"`
	SubsetSize    int     `yaml:"subset_size" json:"subset_size"`
	Seed          int64   `yaml:"seed" json:"seed"`
	RemapSeed     int64   `yaml:"remap_seed" json:"remap_seed"` // 0 = keep original labels
	PoisonTestSet bool    `yaml:"poison_test_set" json:"poison_test_set"`
	Overwrite     bool    `yaml:"overwrite" json:"overwrite"`
}

// DefaultParams returns the defaults of the command line tool.
func DefaultParams() Params {
	return Params{
		Method:  MethodWhiteSquare,
		Ratio:   1.0,
		Opacity: 0.5,
	}
}

// LoadParams reads a YAML parameter file on top of DefaultParams.
// Uses strict parsing: unrecognized keys (typos) are rejected.
// Method is left empty when the file does not set poison_method, so callers
// can tell an explicit choice from the default.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading poison params: %w", err)
	}
	params := DefaultParams()
	params.Method = ""
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&params); err != nil {
		return nil, fmt.Errorf("%w: parsing poison params: %v", ErrInvalidConfig, err)
	}
	params.TargetClasses = normalizeClasses(params.TargetClasses)
	return &params, nil
}

// ParseTargetClasses parses a comma separated class list such as "1,2,3".
func ParseTargetClasses(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty target class list", ErrInvalidConfig)
	}
	parts := strings.Split(s, ",")
	classes := make([]int, 0, len(parts))
	for _, p := range parts {
		c, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: malformed target class %q in %q", ErrInvalidConfig, p, s)
		}
		classes = append(classes, c)
	}
	return normalizeClasses(classes), nil
}

// normalizeClasses sorts and de-duplicates a class list.
func normalizeClasses(classes []int) []int {
	if len(classes) == 0 {
		return classes
	}
	out := append([]int(nil), classes...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// Validate checks parameter ranges against a label space of numClasses.
func (p *Params) Validate(numClasses int) error {
	if !IsValidMethod(p.Method) {
		return fmt.Errorf("%w: unknown poison method %q; valid: %s", ErrInvalidConfig, p.Method, strings.Join(MethodNames(), ", "))
	}
	// Comparisons are negated so NaN fails them.
	if !(p.Ratio >= 0) || math.IsInf(p.Ratio, 1) {
		return fmt.Errorf("%w: ratio must be a finite non-negative number, got %v", ErrInvalidConfig, p.Ratio)
	}
	if !(p.Opacity >= 0 && p.Opacity <= 1) {
		return fmt.Errorf("%w: opacity must be in [0,1], got %v", ErrInvalidConfig, p.Opacity)
	}
	if !(p.Variance >= 0) || math.IsInf(p.Variance, 1) {
		return fmt.Errorf("%w: variance must be a finite non-negative number, got %v", ErrInvalidConfig, p.Variance)
	}
	if len(p.TargetClasses) == 0 {
		return fmt.Errorf("%w: at least one target class required", ErrInvalidConfig)
	}
	for _, c := range p.TargetClasses {
		if c < 0 || c >= numClasses {
			return fmt.Errorf("%w: target class %d outside [0,%d)", ErrInvalidConfig, c, numClasses)
		}
	}
	if p.SubsetSize < 0 {
		return fmt.Errorf("%w: subset size must be non-negative, got %d", ErrInvalidConfig, p.SubsetSize)
	}
	if p.Method == MethodBlendRandom {
		if p.SourceClass == nil {
			return fmt.Errorf("%w: provide source class for %s", ErrInvalidConfig, MethodBlendRandom)
		}
		if *p.SourceClass < 0 || *p.SourceClass >= numClasses {
			return fmt.Errorf("%w: source class %d outside [0,%d)", ErrInvalidConfig, *p.SourceClass, numClasses)
		}
	}
	return nil
}
