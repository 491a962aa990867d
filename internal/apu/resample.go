package apu

import "math"

// hostSampleRate is the fixed output rate the audio backend expects
// (see internal/ui/audio.go's go-sdl2 queue format).
const hostSampleRate = 48000

// cpuFrequency is the nominal DMG clock in T-cycles per second.
const cpuFrequency = 4194304

// Resampler accumulates the mixed T-cycle-rate signal and drains it at
// hostSampleRate. No blip-buf-style band-limited resampler exists
// anywhere in the example pack, so this applies the "transient filter"
// fallback: a single-pole low-pass run over the naively-averaged
// accumulator, which removes the aliasing harshness a bare
// nearest-cycle sample would have without pulling in a DSP library.
type Resampler struct {
	cyclesPerSample float64
	cycleAcc        float64

	leftAcc, rightAcc   int64
	accCycles           int
	filteredL, filteredR float64

	out []int16 // interleaved L,R
}

// NewResampler returns a resampler ready to accept Push calls.
func NewResampler() *Resampler {
	return &Resampler{
		cyclesPerSample: float64(cpuFrequency) / float64(hostSampleRate),
	}
}

// Push folds cycles worth of a (left, right) mixed level into the
// accumulator, emitting host samples as the accumulator crosses each
// sample-period boundary.
func (r *Resampler) Push(cycles int, left, right int32) {
	if cycles <= 0 {
		return
	}
	r.leftAcc += int64(left) * int64(cycles)
	r.rightAcc += int64(right) * int64(cycles)
	r.accCycles += cycles

	r.cycleAcc += float64(cycles)
	for r.cycleAcc >= r.cyclesPerSample {
		r.cycleAcc -= r.cyclesPerSample
		r.emit()
	}
}

const filterAlpha = 0.2 // transient-filter pole; higher = less damping (1 = no filtering)

func (r *Resampler) emit() {
	var avgL, avgR float64
	if r.accCycles > 0 {
		avgL = float64(r.leftAcc) / float64(r.accCycles)
		avgR = float64(r.rightAcc) / float64(r.accCycles)
	}
	r.leftAcc, r.rightAcc, r.accCycles = 0, 0, 0

	r.filteredL += (avgL - r.filteredL) * filterAlpha
	r.filteredR += (avgR - r.filteredR) * filterAlpha

	const scale = 32767.0 / (4 * 15 * 8) // 4 channels, 15 max volume, 8 master gain
	l := clampSample(r.filteredL * scale)
	rr := clampSample(r.filteredR * scale)
	r.out = append(r.out, l, rr)
}

func clampSample(v float64) int16 {
	v = math.Round(v)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Drain removes and returns every interleaved stereo sample produced
// since the last call, for the audio backend to queue.
func (r *Resampler) Drain() []int16 {
	if len(r.out) == 0 {
		return nil
	}
	out := r.out
	r.out = nil
	return out
}
