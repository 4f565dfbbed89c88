package guml

import (
	"runtime"
)

// ArchToleranceConfig provides architecture-specific tolerance configurations
type ArchToleranceConfig struct {
	// Base tolerance for all architectures
	Base ToleranceConfig

	// Architecture-specific overrides
	AMD64   *ToleranceConfig
	ARM64   *ToleranceConfig
	Generic *ToleranceConfig
}

// GetArchTolerance returns the appropriate tolerance for the current architecture
func GetArchTolerance(config ArchToleranceConfig) ToleranceConfig {
	base := config.Base

	switch runtime.GOARCH {
	case "amd64":
		if config.AMD64 != nil {
			return mergeTolerances(base, *config.AMD64)
		}
	case "arm64", "arm64be":
		if config.ARM64 != nil {
			return mergeTolerances(base, *config.ARM64)
		}
	default:
		if config.Generic != nil {
			return mergeTolerances(base, *config.Generic)
		}
	}

	return base
}

// mergeTolerances applies overrides to base tolerance
func mergeTolerances(base, override ToleranceConfig) ToleranceConfig {
	result := base

	// Only override non-zero values
	if override.AbsTol > 0 {
		result.AbsTol = override.AbsTol
	}
	if override.RelTol > 0 {
		result.RelTol = override.RelTol
	}
	if override.ULPTol > 0 {
		result.ULPTol = override.ULPTol
	}

	return result
}

// GEMMArchTolerance provides architecture-aware tolerances for GEMM operations
var GEMMArchTolerance = ArchToleranceConfig{
	Base: ToleranceConfig{
		AbsTol:   1e-6,
		RelTol:   1e-5,
		ULPTol:   4,
		CheckNaN: true,
		CheckInf: true,
	},
	ARM64: &ToleranceConfig{
		// NEON FMA skips the intermediate rounding, so products land on
		// different ULPs than separate multiply-add sequences
		AbsTol: 1e-5,
		RelTol: 1e-4,
		ULPTol: 16,
	},
	Generic: &ToleranceConfig{
		AbsTol: 1e-4,
		RelTol: 1e-3,
		ULPTol: 32,
	},
}

// ReduceArchTolerance provides architecture-aware tolerances for reduction operations
var ReduceArchTolerance = ArchToleranceConfig{
	Base: ToleranceConfig{
		AbsTol:   1e-5,
		RelTol:   1e-4,
		ULPTol:   16,
		CheckNaN: true,
		CheckInf: true,
	},
	ARM64: &ToleranceConfig{
		// Vector reductions accumulate in a different order on NEON
		AbsTol: 1e-4,
		RelTol: 1e-3,
		ULPTol: 64,
	},
}

// EstimatorArchTolerance provides architecture-aware tolerances for whole
// estimator outputs. An embedding passes through centering, a GEMM, and an
// iterative eigensolve, so the bounds are wider than any single kernel's.
var EstimatorArchTolerance = ArchToleranceConfig{
	Base: ToleranceConfig{
		AbsTol:   1e-3,
		RelTol:   1e-3,
		ULPTol:   32,
		CheckNaN: true,
		CheckInf: true,
	},
	ARM64: &ToleranceConfig{
		AbsTol: 2e-3,
		RelTol: 2e-3,
		ULPTol: 64,
	},
	Generic: &ToleranceConfig{
		AbsTol: 5e-3,
		RelTol: 5e-3,
		ULPTol: 128,
	},
}

// GetOperationTolerance returns architecture-specific tolerance for an operation
func GetOperationTolerance(operation string) ToleranceConfig {
	switch operation {
	case "gemm":
		return GetArchTolerance(GEMMArchTolerance)
	case "reduce_sum", "softmax":
		return GetArchTolerance(ReduceArchTolerance)
	case "pca", "tsvd", "kmeans", "umap":
		return GetArchTolerance(EstimatorArchTolerance)
	default:
		return DefaultTolerance()
	}
}

// IsARM64 returns true if running on ARM64 architecture
func IsARM64() bool {
	return runtime.GOARCH == "arm64" || runtime.GOARCH == "arm64be"
}

// Note for ARM64 runs:
// NEON uses "round to nearest, ties to even" and fuses multiply-add without
// intermediate rounding, and vector reductions may accumulate in tree order
// rather than sequentially. Tolerance failures that appear only on ARM64
// usually trace back to one of those three differences.
