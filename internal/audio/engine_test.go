// SPDX-License-Identifier: MIT
package audio

import (
	"testing"
)

// TestBranchlessAbsPerformance verifies the branchless absolute value
// calculation has no allocations.
func TestBranchlessAbsPerformance(t *testing.T) {
	samples := make([]int32, 1024)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = int32(i * 1000)
		} else {
			samples[i] = int32(-i * 1000)
		}
	}

	allocs := testing.AllocsPerRun(100, func() {
		for i, sample := range samples {
			mask := sample >> 31
			samples[i] = (sample ^ mask) - mask
		}
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in branchless abs, got %.1f", allocs)
	}
}

// TestGateHotPath tests the core gate algorithm for zero allocations.
func TestGateHotPath(t *testing.T) {
	buffer := make([]int32, 1024)
	for i := range buffer {
		buffer[i] = int32((i % 100) * 10000000)
	}

	threshold := int32(500000000)

	allocs := testing.AllocsPerRun(100, func() {
		var maxAmplitude int32
		for i := 0; i < len(buffer); i++ {
			sample := buffer[i]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask

			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		_ = maxAmplitude > threshold
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in gate hot path, got %.1f", allocs)
	}
}

func TestMixMonoAveragesChannels(t *testing.T) {
	// Two interleaved stereo frames: (100, 200) and (-50, 50).
	src := []int32{100, 200, -50, 50}
	dst := make([]int32, 2)

	mixMono(dst, src, 2)

	if dst[0] != 150 {
		t.Errorf("frame 0 = %d, want 150", dst[0])
	}
	if dst[1] != 0 {
		t.Errorf("frame 1 = %d, want 0", dst[1])
	}
}

func TestMixMonoShortSourceZeroFills(t *testing.T) {
	src := []int32{100, 200} // one full stereo frame only
	dst := []int32{7, 7, 7}

	mixMono(dst, src, 2)

	if dst[0] != 150 {
		t.Errorf("frame 0 = %d, want 150", dst[0])
	}
	for i := 1; i < len(dst); i++ {
		if dst[i] != 0 {
			t.Errorf("frame %d = %d, want 0 for missing input", i, dst[i])
		}
	}
}

func TestMixMonoNoAllocations(t *testing.T) {
	src := make([]int32, 2048)
	dst := make([]int32, 1024)

	allocs := testing.AllocsPerRun(100, func() {
		mixMono(dst, src, 2)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in mixMono, got %.1f", allocs)
	}
}

// BenchmarkHotPath benchmarks the gate plus mixdown path.
func BenchmarkHotPath(b *testing.B) {
	buffer := make([]int32, 2048)
	for i := range buffer {
		buffer[i] = int32((i % 100) * 10000000)
	}
	mono := make([]int32, 1024)
	threshold := int32(500000000)

	b.ResetTimer()
	for b.Loop() {
		var maxAmplitude int32
		for j := 0; j < len(buffer); j++ {
			sample := buffer[j]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask

			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		if maxAmplitude > threshold {
			mixMono(mono, buffer, 2)
		}
	}
}
