// Package poison derives a clean-label poisoned variant of an image
// classification dataset.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - quota.go: per-class transformation budgets computed from the train partition
//   - strategy.go: the Strategy contract and NewStrategy, the single constructor
//   - overlay.go, blend.go: the three strategies (white-square, blend-one-image, blend-random)
//   - builder.go: the sequential train-then-test materialization loop
//
// # Reproducibility
//
// Every random draw comes from a PartitionedRNG keyed by the run seed. The
// strategies consume one shared stream in sample order, so a run is
// reproducible only when the seed and the sample order are both fixed. The
// label permutation comes from a separate stream of the same handle, chosen
// by the remap seed.
//
// # Related packages
//   - poison/manifest: on-disk dataset layout (train.txt, test.txt, PNGs, meta.json)
//   - poison/source: clean dataset readers (CIFAR binary, manifest directories)
//   - poison/trace: per-sample decision recording
//   - poison/catalog: SQLite provenance ledger
package poison
