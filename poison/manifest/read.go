package manifest

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Record is one manifest line.
type Record struct {
	Path  string // relative to the dataset root, slash separated
	Label int
}

// ReadManifest parses the manifest of partition under root.
func ReadManifest(root, partition string) ([]Record, error) {
	f, err := os.Open(ManifestPath(root, partition))
	if err != nil {
		return nil, fmt.Errorf("opening %s manifest: %w", partition, err)
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue
		}
		sep := strings.LastIndexByte(text, ' ')
		if sep <= 0 {
			return nil, fmt.Errorf("%s.txt:%d: expected \"<path> <label>\", got %q", partition, line, text)
		}
		label, err := strconv.Atoi(text[sep+1:])
		if err != nil {
			return nil, fmt.Errorf("%s.txt:%d: bad label: %w", partition, line, err)
		}
		records = append(records, Record{Path: text[:sep], Label: label})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s manifest: %w", partition, err)
	}
	return records, nil
}
