package poison

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// RunKey identifies a reproducible poisoning run. Two runs with the same
// RunKey, parameters and input dataset MUST produce byte-identical output.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// SubsystemPoison is the stream consumed by the strategies: reference-image
// draws and alpha perturbations, in sample order. It is seeded with the run
// key itself.
const SubsystemPoison = "poison"

// subsystemRemapPrefix prefixes the remap stream name; see RemapSubsystem.
const subsystemRemapPrefix = "remap/"

// RemapSubsystem names the stream the label permutation is drawn from.
// The remap seed is part of the name, so each remap seed selects its own
// permutation under one run key.
func RemapSubsystem(remapSeed int64) string {
	return subsystemRemapPrefix + strconv.FormatInt(remapSeed, 10)
}

// PartitionedRNG hands out one *rand.Rand per named stream, all derived
// from a single RunKey. SubsystemPoison uses the key as is; any other name
// uses key XOR fnv1a64(name). Drawing from one stream never shifts another.
//
// Not safe for concurrent use.
type PartitionedRNG struct {
	key     RunKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls with one name return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemPoison {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.streams[name] = rng
	return rng
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
