// Package trace records per-sample poisoning decisions for offline analysis.
// This package has no dependencies on poison/; it stores pure data types.
package trace

// PoisonRecord captures the strategy decision for a single sample.
type PoisonRecord struct {
	Partition string  `yaml:"partition"`
	Index     int     `yaml:"index"`
	Label     int     `yaml:"label"` // working label, after any remap
	Applied   bool    `yaml:"applied"`
	Alpha     float64 `yaml:"alpha,omitempty"`
	Reference int     `yaml:"reference"` // train index of the blend reference, -1 if none
}
