// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"math"
	"sync"
)

// LevelMeter tracks the input level of a recording for visual feedback.
// Levels are RMS energy normalized to [0, 1].
type LevelMeter struct {
	mu      sync.RWMutex
	level   float64
	peak    float64
	samples uint64
}

// NewLevelMeter creates a LevelMeter.
func NewLevelMeter() *LevelMeter {
	return &LevelMeter{}
}

// Process updates the meter with a frame of samples and returns the frame's
// normalized level.
func (m *LevelMeter) Process(samples []int16) float64 {
	level := RMSLevel(samples)

	m.mu.Lock()
	m.level = level
	if level > m.peak {
		m.peak = level
	}
	m.samples += uint64(len(samples))
	m.mu.Unlock()

	return level
}

// Level returns the most recent normalized level.
func (m *LevelMeter) Level() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// Peak returns the highest level seen since the last Reset.
func (m *LevelMeter) Peak() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peak
}

// Reset clears the meter for a new recording.
func (m *LevelMeter) Reset() {
	m.mu.Lock()
	m.level = 0
	m.peak = 0
	m.samples = 0
	m.mu.Unlock()
}

// RMSLevel computes the RMS energy of PCM-16 samples, normalized to [0, 1].
func RMSLevel(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var energy float64
	for _, s := range samples {
		f := float64(s)
		energy += f * f
	}
	rms := math.Sqrt(energy / float64(len(samples)))

	normalized := rms / 32768.0
	if normalized > 1 {
		normalized = 1
	}
	return normalized
}
