// Package filter plans the ordered chain of audio transforms handed to
// the transcoder. Planning is pure arithmetic; steps are only rendered
// to ffmpeg filter syntax at the subprocess boundary.
package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BaseSampleRate is the fixed resample anchor for pitch shifting.
const BaseSampleRate = 44100

// Bounds a single atempo application accepts. Ratios outside this range
// are expressed as a chain of bounded steps.
const (
	TempoStepMin = 0.5
	TempoStepMax = 2.0
)

const ratioEpsilon = 1e-9

// Step is one audio transform applied by the transcoder.
type Step interface {
	Render() string
}

// PitchStep resamples the stream at BaseSampleRate*Ratio and restores
// playback to BaseSampleRate. This shifts pitch and duration together;
// tempo steps later in the chain correct duration independently.
type PitchStep struct {
	Ratio float64
}

func (p PitchStep) Render() string {
	rate := int(math.Round(BaseSampleRate * p.Ratio))
	return fmt.Sprintf("asetrate=%d,aresample=%d", rate, BaseSampleRate)
}

// TempoStep adjusts tempo by Ratio without affecting pitch.
type TempoStep struct {
	Ratio float64
}

func (t TempoStep) Render() string {
	return "atempo=" + strconv.FormatFloat(t.Ratio, 'f', -1, 64)
}

// Chain is an ordered filter sequence. Order matters: the pitch step
// must precede tempo steps so tempo operates on the shifted stream.
type Chain []Step

// Render joins the chain into a single ffmpeg -af expression.
func (c Chain) Render() string {
	parts := make([]string, len(c))
	for i, step := range c {
		parts[i] = step.Render()
	}
	return strings.Join(parts, ",")
}

// PitchRatio converts a semitone offset to a sample-rate multiplier,
// 2^(semitones/12).
func PitchRatio(semitones int) float64 {
	return math.Pow(2, float64(semitones)/12)
}

// Plan computes the filter chain for a pitch shift in semitones and a
// playback speed ratio. Both at their identity values yield an empty
// chain (pass-through re-encode).
func Plan(pitchShift int, speed float64) Chain {
	var chain Chain

	if pitchShift != 0 {
		chain = append(chain, PitchStep{Ratio: PitchRatio(pitchShift)})
	}

	if !nearlyOne(speed) {
		ratio := speed
		for ratio > TempoStepMax {
			chain = append(chain, TempoStep{Ratio: TempoStepMax})
			ratio /= TempoStepMax
		}
		// Dividing the residual by 0.5 after emitting a ×0.5 step is the
		// same as doubling it, which converges into [0.5, 2.0] while
		// preserving the product of the chain.
		for ratio < TempoStepMin {
			chain = append(chain, TempoStep{Ratio: TempoStepMin})
			ratio /= TempoStepMin
		}
		if !nearlyOne(ratio) {
			chain = append(chain, TempoStep{Ratio: ratio})
		}
	}

	return chain
}

func nearlyOne(ratio float64) bool {
	return math.Abs(ratio-1) < ratioEpsilon
}
