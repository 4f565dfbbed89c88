// Copyright ©2024 The GUML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package f32

import "math"

// Softmax computes softmax in-place: x[i] = exp(x[i]) / sum(exp(x))
func Softmax(x []float32) {
	if len(x) == 0 {
		return
	}

	// Find max for numerical stability
	max := Max(x)

	// Compute exp(x - max) and sum
	sum := float32(0)
	for i := range x {
		x[i] = float32(math.Exp(float64(x[i] - max)))
		sum += x[i]
	}

	// Normalize
	invSum := 1.0 / sum
	ScalUnitary(invSum, x)
}

// LogSumExp computes log(sum(exp(x))) in a numerically stable way
func LogSumExp(x []float32) float32 {
	if len(x) == 0 {
		return float32(math.Inf(-1))
	}

	// Find max for numerical stability
	max := Max(x)

	// Handle case where max is -Inf
	if math.IsInf(float64(max), -1) {
		return max
	}

	// Compute sum(exp(x - max))
	sum := float32(0)
	for i := range x {
		sum += float32(math.Exp(float64(x[i] - max)))
	}

	return max + float32(math.Log(float64(sum)))
}

// CumSum computes cumulative sum: out[i] = sum(x[0:i+1])
func CumSum(x, out []float32) {
	if len(x) == 0 {
		return
	}

	sum := float32(0)
	for i := range x {
		sum += x[i]
		out[i] = sum
	}
}

// SegmentSum computes sum of segments defined by segment IDs.
// The KMeans centroid update uses this with cluster labels as segments.
func SegmentSum(data []float32, segmentIds []int, nSegments int, out []float32) {
	// Initialize output to zero
	for i := range out[:nSegments] {
		out[i] = 0
	}

	// Sum each segment
	for i, val := range data {
		if i < len(segmentIds) {
			segId := segmentIds[i]
			if segId >= 0 && segId < nSegments {
				out[segId] += val
			}
		}
	}
}

// SegmentCount counts the number of elements assigned to each segment
func SegmentCount(segmentIds []int, nSegments int, out []int) {
	for i := range out[:nSegments] {
		out[i] = 0
	}
	for _, segId := range segmentIds {
		if segId >= 0 && segId < nSegments {
			out[segId]++
		}
	}
}
