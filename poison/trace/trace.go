package trace

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelDecisions captures the decision for every sample the strategy saw.
	LevelDecisions Level = "decisions"
	// LevelApplied captures only samples that were transformed.
	LevelApplied Level = "applied"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:      true,
	LevelDecisions: true,
	LevelApplied:   true,
	"":             true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Recorder collects decision records during a materialization run.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	Level   Level
	Records []PoisonRecord
}

// NewRecorder creates a Recorder ready for recording.
func NewRecorder(level Level) *Recorder {
	return &Recorder{
		Level:   level,
		Records: make([]PoisonRecord, 0),
	}
}

// Enabled reports whether records are being kept.
func (r *Recorder) Enabled() bool {
	return r != nil && r.Level != LevelNone && r.Level != ""
}

// Record appends a decision record, subject to the recorder level.
func (r *Recorder) Record(record PoisonRecord) {
	if !r.Enabled() {
		return
	}
	if r.Level == LevelApplied && !record.Applied {
		return
	}
	r.Records = append(r.Records, record)
}

// WriteYAML writes all records as a YAML sequence.
func (r *Recorder) WriteYAML(w io.Writer) error {
	records := []PoisonRecord{}
	if r != nil {
		records = r.Records
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return enc.Close()
}
