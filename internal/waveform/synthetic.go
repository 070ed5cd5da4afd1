// SPDX-License-Identifier: MIT
package waveform

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// Section amplitudes of the fake song structure the synthetic envelope
// cycles through: intro, verse, chorus, verse, chorus, outro.
var syntheticSections = []float64{0.45, 0.7, 0.95, 0.7, 1.0, 0.4}

// Synthetic builds a plausible stand-in envelope for a track whose real
// analysis failed or has not finished. Deterministic per identifier:
// the same track always gets the same fake waveform, so the UI does
// not flicker between retries. Verse/chorus amplitude sections are
// overlaid with multi-sine jitter plus a little seeded noise.
func Synthetic(trackIdentifier string, targetPoints int) Envelope {
	if targetPoints <= 0 {
		targetPoints = DefaultTargetPoints
	}

	h := fnv.New64a()
	h.Write([]byte(trackIdentifier))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	phase1 := rng.Float64() * 2 * math.Pi
	phase2 := rng.Float64() * 2 * math.Pi
	phase3 := rng.Float64() * 2 * math.Pi

	env := make(Envelope, targetPoints)
	sectionLen := float64(targetPoints) / float64(len(syntheticSections))
	for i := range env {
		section := int(float64(i) / sectionLen)
		if section >= len(syntheticSections) {
			section = len(syntheticSections) - 1
		}
		base := syntheticSections[section]

		t := float64(i)
		jitter := 0.12*math.Sin(t*0.21+phase1) +
			0.08*math.Sin(t*0.53+phase2) +
			0.05*math.Sin(t*1.31+phase3) +
			0.06*(rng.Float64()-0.5)

		v := base + jitter
		if v < 0.05 {
			v = 0.05
		}
		if v > 1 {
			v = 1
		}
		env[i] = v
	}
	return env
}
