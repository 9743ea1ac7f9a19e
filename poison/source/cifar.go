// Package source reads clean datasets from disk. Downloading is left to the
// caller: every reader expects an already extracted directory.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/poisonset/poisonset/poison"
)

// CIFAR binary layout: 32x32 RGB images stored as three 1024-byte planes.
const (
	cifarSide   = 32
	cifarPlane  = cifarSide * cifarSide
	cifarPixels = 3 * cifarPlane
)

// CIFAR10Classes and CIFAR100Classes are the label space sizes.
const (
	CIFAR10Classes  = 10
	CIFAR100Classes = 100
)

var (
	cifar10Train = []string{"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin", "data_batch_4.bin", "data_batch_5.bin"}
	cifar10Test  = []string{"test_batch.bin"}
)

// LoadCIFAR10 reads the CIFAR-10 binary distribution from dir
// (data_batch_1..5.bin and test_batch.bin).
func LoadCIFAR10(dir string) (*poison.Dataset, error) {
	train, err := readCIFARFiles(dir, poison.PartitionTrain, cifar10Train, 0)
	if err != nil {
		return nil, err
	}
	test, err := readCIFARFiles(dir, poison.PartitionTest, cifar10Test, 0)
	if err != nil {
		return nil, err
	}
	return &poison.Dataset{Train: train, Test: test, NumClasses: CIFAR10Classes}, nil
}

// LoadCIFAR100 reads the CIFAR-100 binary distribution from dir
// (train.bin and test.bin). Records carry a coarse and a fine label; the
// fine label is used.
func LoadCIFAR100(dir string) (*poison.Dataset, error) {
	train, err := readCIFARFiles(dir, poison.PartitionTrain, []string{"train.bin"}, 1)
	if err != nil {
		return nil, err
	}
	test, err := readCIFARFiles(dir, poison.PartitionTest, []string{"test.bin"}, 1)
	if err != nil {
		return nil, err
	}
	return &poison.Dataset{Train: train, Test: test, NumClasses: CIFAR100Classes}, nil
}

func readCIFARFiles(dir, name string, files []string, skipLabels int) (*poison.Partition, error) {
	part := &poison.Partition{Name: name}
	for _, file := range files {
		f, err := os.Open(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("opening cifar batch: %w", err)
		}
		samples, err := ReadCIFARRecords(bufio.NewReader(f), skipLabels)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		part.Samples = append(part.Samples, samples...)
	}
	return part, nil
}

// ReadCIFARRecords decodes consecutive CIFAR records from r. Each record is
// skipLabels ignored label bytes, one label byte and 3072 planar RGB bytes.
// Images are returned as 32x32x3 interleaved rasters.
func ReadCIFARRecords(r io.Reader, skipLabels int) ([]poison.Sample, error) {
	record := make([]byte, skipLabels+1+cifarPixels)
	var samples []poison.Sample
	for {
		_, err := io.ReadFull(r, record)
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(samples), err)
		}
		label := int(record[skipLabels])
		planes := record[skipLabels+1:]
		img := poison.NewImage(cifarSide, cifarSide, 3)
		for p := 0; p < cifarPlane; p++ {
			img.Pix[3*p] = planes[p]
			img.Pix[3*p+1] = planes[cifarPlane+p]
			img.Pix[3*p+2] = planes[2*cifarPlane+p]
		}
		samples = append(samples, poison.Sample{Image: img, Label: label})
	}
}
