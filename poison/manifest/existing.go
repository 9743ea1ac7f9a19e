package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/poisonset/poisonset/poison"
)

// ReadMetadata loads meta.json from root. It returns fs.ErrNotExist (wrapped)
// when no dataset is present and ErrCorruptMetadata when the file cannot be parsed.
func ReadMetadata(root string) (*poison.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(root, MetaFileName))
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	var meta poison.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
	}
	if meta.PoisonType == "" {
		return nil, fmt.Errorf("%w: missing poisonType", ErrCorruptMetadata)
	}
	return &meta, nil
}

// Current returns the poison type of the dataset at root, or "" when none exists.
func Current(root string) (string, error) {
	meta, err := ReadMetadata(root)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.PoisonType, nil
}

// Claim makes root ready for a new dataset. Unparsable metadata is treated as
// no usable dataset and forces an overwrite. An existing dataset without
// overwrite yields ErrDatasetExists and nothing is touched. With overwrite
// the previous dataset is removed.
func Claim(root string, overwrite bool, logger logrus.FieldLogger) error {
	current, err := Current(root)
	if errors.Is(err, ErrCorruptMetadata) {
		logger.Errorf("corrupted dataset, overwriting: %v", err)
		current, overwrite = "", true
	} else if err != nil {
		return err
	}

	if current != "" && !overwrite {
		return fmt.Errorf("%w: dataset with poison %s exists at %s, use --overwrite", ErrDatasetExists, current, root)
	}
	if overwrite {
		return Remove(root, logger)
	}
	return nil
}

// Remove deletes the manifests, metadata and image directories under root.
// Missing entries are ignored; root itself is kept.
func Remove(root string, logger logrus.FieldLogger) error {
	logger.Infof("removing dataset at %s", root)
	for _, name := range []string{
		poison.PartitionTrain + ".txt",
		poison.PartitionTest + ".txt",
		MetaFileName,
	} {
		if err := os.Remove(filepath.Join(root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}
	for _, dir := range poison.PartitionOrder {
		if err := os.RemoveAll(filepath.Join(root, dir)); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	logger.Info("removed dataset")
	return nil
}
