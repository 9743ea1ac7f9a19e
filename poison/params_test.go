package poison

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetClasses(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"1,2,3", []int{1, 2, 3}, false},
		{" 3, 1 ,3", []int{1, 3}, false},
		{"7", []int{7}, false},
		{"", nil, true},
		{"1,,2", nil, true},
		{"a,b", nil, true},
		{"1;2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTargetClasses(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParams_Validate(t *testing.T) {
	src := 2
	badSrc := 12
	tests := []struct {
		name   string
		mutate func(p *Params)
		ok     bool
	}{
		{"defaults with target", func(p *Params) {}, true},
		{"blend-random with source", func(p *Params) { p.Method = MethodBlendRandom; p.SourceClass = &src }, true},
		{"source class zero is valid", func(p *Params) { zero := 0; p.Method = MethodBlendRandom; p.SourceClass = &zero }, true},
		{"ratio above one", func(p *Params) { p.Ratio = 2 }, true},
		{"unknown method", func(p *Params) { p.Method = "pixel" }, false},
		{"empty method", func(p *Params) { p.Method = "" }, false},
		{"negative ratio", func(p *Params) { p.Ratio = -0.1 }, false},
		{"opacity above one", func(p *Params) { p.Opacity = 1.2 }, false},
		{"negative variance", func(p *Params) { p.Variance = -1 }, false},
		{"NaN ratio", func(p *Params) { p.Ratio = math.NaN() }, false},
		{"infinite ratio", func(p *Params) { p.Ratio = math.Inf(1) }, false},
		{"negative infinite ratio", func(p *Params) { p.Ratio = math.Inf(-1) }, false},
		{"NaN opacity", func(p *Params) { p.Opacity = math.NaN() }, false},
		{"infinite opacity", func(p *Params) { p.Opacity = math.Inf(1) }, false},
		{"negative infinite opacity", func(p *Params) { p.Opacity = math.Inf(-1) }, false},
		{"NaN variance", func(p *Params) { p.Variance = math.NaN() }, false},
		{"infinite variance", func(p *Params) { p.Variance = math.Inf(1) }, false},
		{"no targets", func(p *Params) { p.TargetClasses = nil }, false},
		{"target out of range", func(p *Params) { p.TargetClasses = []int{10} }, false},
		{"negative subset", func(p *Params) { p.SubsetSize = -1 }, false},
		{"blend-random without source", func(p *Params) { p.Method = MethodBlendRandom }, false},
		{"source out of range", func(p *Params) { p.Method = MethodBlendRandom; p.SourceClass = &badSrc }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.TargetClasses = []int{1}
			tt.mutate(&p)
			err := p.Validate(10)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestLoadParams_StrictYAML(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
poison_method: blend-random
ratio: 0.25
target_classes: [3, 1, 3]
source_class: 0
subset_size: 10
variance: 0.1
`), 0644))
	p, err := LoadParams(good)
	require.NoError(t, err)
	assert.Equal(t, MethodBlendRandom, p.Method)
	assert.Equal(t, 0.25, p.Ratio)
	assert.Equal(t, 0.5, p.Opacity, "unset keys keep defaults")
	assert.Equal(t, []int{1, 3}, p.TargetClasses)
	require.NotNil(t, p.SourceClass)
	assert.Equal(t, 0, *p.SourceClass)
	assert.Equal(t, 10, p.SubsetSize)

	noMethod := filepath.Join(dir, "no-method.yaml")
	require.NoError(t, os.WriteFile(noMethod, []byte("ratio: 0.5\n"), 0644))
	p, err = LoadParams(noMethod)
	require.NoError(t, err)
	assert.Equal(t, "", p.Method, "an omitted poison_method stays unset")

	nan := filepath.Join(dir, "nan.yaml")
	require.NoError(t, os.WriteFile(nan, []byte("poison_method: white-square\nratio: .nan\ntarget_classes: [0]\n"), 0644))
	p, err = LoadParams(nan)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Validate(2), ErrInvalidConfig)

	typo := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(typo, []byte("ratoi: 0.5\n"), 0644))
	_, err = LoadParams(typo)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadParams(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
