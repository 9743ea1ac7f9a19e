package trace

import (
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRecorder_Record_AppendsRecord(t *testing.T) {
	// GIVEN a recorder configured for decisions
	r := NewRecorder(LevelDecisions)

	// WHEN a decision is recorded
	r.Record(PoisonRecord{Partition: "train", Index: 4, Label: 2, Applied: true, Alpha: 0.5, Reference: 0})

	// THEN the recorder holds one record with correct data
	if len(r.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(r.Records))
	}
	if r.Records[0].Index != 4 || r.Records[0].Label != 2 {
		t.Errorf("unexpected record %+v", r.Records[0])
	}
}

func TestRecorder_AppliedLevel_SkipsNoOps(t *testing.T) {
	r := NewRecorder(LevelApplied)
	r.Record(PoisonRecord{Index: 0, Applied: false, Reference: -1})
	r.Record(PoisonRecord{Index: 1, Applied: true, Reference: -1})

	if len(r.Records) != 1 || r.Records[0].Index != 1 {
		t.Errorf("expected only the applied record, got %+v", r.Records)
	}
}

func TestRecorder_NoneAndNil_RecordNothing(t *testing.T) {
	r := NewRecorder(LevelNone)
	r.Record(PoisonRecord{Applied: true})
	if len(r.Records) != 0 {
		t.Errorf("LevelNone recorded %d records", len(r.Records))
	}

	var nilRec *Recorder
	nilRec.Record(PoisonRecord{Applied: true}) // must not panic
	if nilRec.Enabled() {
		t.Error("nil recorder reports enabled")
	}
}

func TestRecorder_MultipleRecords_PreservesOrder(t *testing.T) {
	r := NewRecorder(LevelDecisions)
	for i := 0; i < 5; i++ {
		r.Record(PoisonRecord{Partition: "train", Index: i})
	}
	for i, rec := range r.Records {
		if rec.Index != i {
			t.Errorf("record %d has index %d", i, rec.Index)
		}
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, lvl := range []string{"", "none", "decisions", "applied"} {
		if !IsValidLevel(lvl) {
			t.Errorf("expected %q to be valid", lvl)
		}
	}
	if IsValidLevel("verbose") {
		t.Error("expected verbose to be invalid")
	}
}

func TestRecorder_WriteYAML_RoundTrips(t *testing.T) {
	r := NewRecorder(LevelDecisions)
	r.Record(PoisonRecord{Partition: "test", Index: 3, Label: 1, Applied: true, Alpha: 0.25, Reference: 7})

	var buf bytes.Buffer
	if err := r.WriteYAML(&buf); err != nil {
		t.Fatal(err)
	}
	var got []PoisonRecord
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != r.Records[0] {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
