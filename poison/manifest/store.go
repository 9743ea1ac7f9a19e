// Package manifest persists materialized datasets in the file-manifest layout
// read by the training pipeline:
//
//	<root>/train.txt      "<relative-path> <label>" per line, in sample order
//	<root>/test.txt
//	<root>/train/<i>.png  one image per sample, i = position in the clean partition
//	<root>/test/<i>.png
//	<root>/meta.json      {"poisonType": ..., "params": {...}, "fingerprint": ...}
//
// meta.json is the sole source of truth for whether a poisoned dataset exists.
package manifest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poisonset/poisonset/poison"
)

// MetaFileName is the metadata file at the dataset root.
const MetaFileName = "meta.json"

// ImageExt is the extension of stored sample images.
const ImageExt = "png"

var (
	// ErrDatasetExists is returned when a dataset is present and overwrite was not requested.
	ErrDatasetExists = errors.New("dataset already exists")
	// ErrCorruptMetadata is returned when meta.json cannot be parsed.
	ErrCorruptMetadata = errors.New("corrupt dataset metadata")
)

// fingerprintNamespace scopes name-based dataset fingerprints.
var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/poisonset/poisonset/meta"))

// ManifestPath returns the manifest file of a partition.
func ManifestPath(root, partition string) string {
	return filepath.Join(root, partition+".txt")
}

// RelativeImagePath returns the manifest path of sample index in partition.
func RelativeImagePath(partition string, index int) string {
	return fmt.Sprintf("%s/%d.%s", partition, index, ImageExt)
}

// Store writes one dataset. It implements poison.Sink.
// Not safe for concurrent use.
type Store struct {
	root    string
	files   map[string]*os.File
	writers map[string]*bufio.Writer
	logger  logrus.FieldLogger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger; defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.logger = l }
}

// Open prepares root for a new dataset: it creates the partition directories
// and truncates the manifest files.
func Open(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:    root,
		files:   make(map[string]*os.File),
		writers: make(map[string]*bufio.Writer),
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, part := range poison.PartitionOrder {
		if err := os.MkdirAll(filepath.Join(root, part), 0755); err != nil {
			s.Close()
			return nil, fmt.Errorf("creating %s directory: %w", part, err)
		}
		f, err := os.Create(ManifestPath(root, part))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating %s manifest: %w", part, err)
		}
		s.files[part] = f
		s.writers[part] = bufio.NewWriter(f)
	}
	return s, nil
}

// Root returns the dataset directory.
func (s *Store) Root() string { return s.root }

// WriteSample stores img under <partition>/<index>.png and appends its
// manifest line.
func (s *Store) WriteSample(partition string, index int, img *poison.Image, label int) error {
	w, ok := s.writers[partition]
	if !ok {
		return fmt.Errorf("unknown partition %q", partition)
	}
	rel := RelativeImagePath(partition, index)
	f, err := os.Create(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	if err := EncodeImage(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s %d\n", rel, label)
	return err
}

// WriteMetadata flushes the manifests and writes meta.json.
func (s *Store) WriteMetadata(meta poison.Metadata) error {
	if err := s.flush(); err != nil {
		return err
	}
	if meta.Fingerprint == "" {
		fp, err := Fingerprint(meta)
		if err != nil {
			return err
		}
		meta.Fingerprint = fp
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(s.root, MetaFileName), data, 0644)
}

func (s *Store) flush() error {
	for _, part := range poison.PartitionOrder {
		if w, ok := s.writers[part]; ok {
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flushing %s manifest: %w", part, err)
			}
		}
	}
	return nil
}

// Close flushes and closes the manifest files.
func (s *Store) Close() error {
	err := s.flush()
	for part, f := range s.files {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(s.files, part)
		delete(s.writers, part)
	}
	return err
}

// Fingerprint derives a stable name-based UUID from the poison type and
// parameters, so identical runs carry identical fingerprints. Overwrite only
// controls how the directory was claimed and is left out.
func Fingerprint(meta poison.Metadata) (string, error) {
	params := meta.Params
	params.Overwrite = false
	payload, err := json.Marshal(struct {
		PoisonType string        `json:"poisonType"`
		Params     poison.Params `json:"params"`
	}{meta.PoisonType, params})
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint payload: %w", err)
	}
	return uuid.NewSHA1(fingerprintNamespace, payload).String(), nil
}
