// Package guml tolerance-based verification for floating-point comparisons
package guml

import (
	"fmt"
	"math"
)

// ToleranceConfig defines tolerance parameters for floating-point comparison
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero
	AbsTol float32

	// RelTol is the relative tolerance as a fraction of the larger value
	RelTol float32

	// ULPTol is the maximum allowed difference in ULPs (Units in Last Place)
	ULPTol int

	// CheckNaN determines if NaN values should be considered equal
	CheckNaN bool

	// CheckInf determines if Inf values should be considered equal
	CheckInf bool
}

// DefaultTolerance returns default tolerance configuration
func DefaultTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-7,
		RelTol:   1e-5,
		ULPTol:   4,
		CheckNaN: true,
		CheckInf: true,
	}
}

// StrictTolerance returns strict tolerance configuration for high precision
func StrictTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-9,
		RelTol:   1e-7,
		ULPTol:   1,
		CheckNaN: true,
		CheckInf: true,
	}
}

// RelaxedTolerance returns relaxed tolerance for accumulated operations.
// Estimator outputs go through long float32 accumulation chains against
// float64 references, so backend comparisons use this preset.
func RelaxedTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol:   1e-5,
		RelTol:   1e-3,
		ULPTol:   16,
		CheckNaN: true,
		CheckInf: true,
	}
}

// Float32NearEqual checks if two float32 values are equal within tolerance
func Float32NearEqual(a, b float32, tol ToleranceConfig) bool {
	// Handle special cases
	if tol.CheckNaN && math.IsNaN(float64(a)) && math.IsNaN(float64(b)) {
		return true
	}

	if tol.CheckInf {
		if math.IsInf(float64(a), 1) && math.IsInf(float64(b), 1) {
			return true // Both +Inf
		}
		if math.IsInf(float64(a), -1) && math.IsInf(float64(b), -1) {
			return true // Both -Inf
		}
	}

	// Any remaining infinity is a mismatch
	if math.IsInf(float64(a), 0) || math.IsInf(float64(b), 0) {
		return false
	}

	// Check if exactly equal (handles ±0)
	if a == b {
		return true
	}

	// Absolute difference
	diff := math.Abs(float64(a - b))

	// Check absolute tolerance
	if diff <= float64(tol.AbsTol) {
		return true
	}

	// Check relative tolerance
	larger := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	if diff <= larger*float64(tol.RelTol) {
		return true
	}

	// Check ULP difference
	if tol.ULPTol > 0 {
		ulpDiff := Float32ULPDiff(a, b)
		if ulpDiff <= tol.ULPTol {
			return true
		}
	}

	return false
}

// Float32ULPDiff computes the difference in ULPs between two float32 values
func Float32ULPDiff(a, b float32) int {
	// Convert to bits
	aBits := math.Float32bits(a)
	bBits := math.Float32bits(b)

	// Check for different signs
	if (aBits^bBits)&0x80000000 != 0 {
		// Different signs, can't use simple subtraction
		// Return max int to indicate very different
		return math.MaxInt32
	}

	// Same sign, compute ULP difference
	var diff int
	if aBits > bBits {
		diff = int(aBits - bBits)
	} else {
		diff = int(bBits - aBits)
	}

	return diff
}

// VerificationResult summarizes an array comparison
type VerificationResult struct {
	MaxAbsError float32
	MaxRelError float32
	MaxULPError int
	NumErrors   int
	TotalItems  int
	FirstError  int // Index of first error, -1 if none
}

// VerifyFloat32Array compares two float32 arrays and returns detailed results
func VerifyFloat32Array(expected, actual []float32, tol ToleranceConfig) VerificationResult {
	result := VerificationResult{
		TotalItems: len(expected),
		FirstError: -1,
	}

	if len(expected) != len(actual) {
		// Arrays have different lengths
		result.NumErrors = len(expected)
		result.MaxAbsError = float32(math.Inf(1))
		return result
	}

	for i := range expected {
		if !Float32NearEqual(expected[i], actual[i], tol) {
			result.NumErrors++
			if result.FirstError == -1 {
				result.FirstError = i
			}

			// Update max errors
			absDiff := float32(math.Abs(float64(expected[i] - actual[i])))
			if absDiff > result.MaxAbsError {
				result.MaxAbsError = absDiff
			}

			// Relative error (avoid division by zero)
			if expected[i] != 0 {
				relDiff := absDiff / float32(math.Abs(float64(expected[i])))
				if relDiff > result.MaxRelError {
					result.MaxRelError = relDiff
				}
			}

			// ULP error
			ulpDiff := Float32ULPDiff(expected[i], actual[i])
			if ulpDiff > result.MaxULPError {
				result.MaxULPError = ulpDiff
			}
		}
	}

	return result
}

// IsAcceptable returns true if the verification result is within tolerance
func (r VerificationResult) IsAcceptable(tol ToleranceConfig) bool {
	return r.NumErrors == 0 ||
		(r.MaxAbsError <= tol.AbsTol &&
			r.MaxRelError <= tol.RelTol &&
			r.MaxULPError <= tol.ULPTol)
}

// String formats the verification result for display
func (r VerificationResult) String() string {
	if r.NumErrors == 0 {
		return "PASS: All values match within tolerance"
	}

	errorRate := float64(r.NumErrors) / float64(r.TotalItems) * 100
	return fmt.Sprintf("FAIL: %d/%d values differ (%.2f%%)\n"+
		"  Max absolute error: %e\n"+
		"  Max relative error: %e\n"+
		"  Max ULP difference: %d\n"+
		"  First error at index: %d",
		r.NumErrors, r.TotalItems, errorRate,
		r.MaxAbsError, r.MaxRelError, r.MaxULPError,
		r.FirstError)
}

// AlignColumnSigns flips columns of actual in place so each column has the
// same orientation as the corresponding column of expected. Eigenvector
// and singular vector outputs are defined only up to sign, so backends must
// be aligned before elementwise comparison. The dominant entry of the
// expected column decides the orientation.
func AlignColumnSigns(expected, actual []float32, rows, cols int) {
	if len(expected) < rows*cols || len(actual) < rows*cols {
		return
	}
	for j := 0; j < cols; j++ {
		// Find the entry with the largest magnitude in the expected column
		pivot := 0
		maxAbs := float32(0)
		for i := 0; i < rows; i++ {
			if a := float32(math.Abs(float64(expected[i*cols+j]))); a > maxAbs {
				maxAbs = a
				pivot = i
			}
		}
		if maxAbs == 0 {
			continue
		}
		e := expected[pivot*cols+j]
		a := actual[pivot*cols+j]
		if (e < 0) != (a < 0) && a != 0 {
			for i := 0; i < rows; i++ {
				actual[i*cols+j] = -actual[i*cols+j]
			}
		}
	}
}

// VerifyColumnsSignless compares two row-major matrices column by column,
// ignoring per-column sign. The actual matrix is sign-aligned in place.
func VerifyColumnsSignless(expected, actual []float32, rows, cols int, tol ToleranceConfig) VerificationResult {
	AlignColumnSigns(expected, actual, rows, cols)
	return VerifyFloat32Array(expected[:rows*cols], actual[:rows*cols], tol)
}

// KernelVerifier runs a kernel and a reference implementation and verifies
// that the results agree
type KernelVerifier struct {
	Name      string
	Reference func([]float32) []float32
	Optimized func(DevicePtr) error
	Tolerance ToleranceConfig
}

// Verify runs both implementations and compares results
func (kv KernelVerifier) Verify(input []float32) (VerificationResult, error) {
	// Run reference implementation
	expected := kv.Reference(append([]float32(nil), input...)) // Copy input

	// Run optimized implementation
	d_input, err := Malloc(len(input) * 4)
	if err != nil {
		return VerificationResult{}, NewMemoryError("Verify", "failed to allocate device memory", err)
	}
	defer Free(d_input)

	copy(d_input.Float32(), input)

	err = kv.Optimized(d_input)
	if err != nil {
		return VerificationResult{}, NewExecutionError("Verify", "optimized kernel failed", err)
	}

	// Synchronize to ensure completion
	err = Synchronize()
	if err != nil {
		return VerificationResult{}, NewExecutionError("Verify", "synchronization failed", err)
	}

	// Get results
	actual := make([]float32, len(input))
	copy(actual, d_input.Float32())

	// Compare
	return VerifyFloat32Array(expected, actual, kv.Tolerance), nil
}
