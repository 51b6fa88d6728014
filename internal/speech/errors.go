// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides the voice pipeline: live speech recognition with a
// hard timeout, cloud and on-device text-to-speech, language detection, and
// the playback controller that masks known engine defects.
package speech

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// RecognitionKind classifies recognition failures. Callers map kinds onto
// user-facing copy.
type RecognitionKind int

const (
	KindOther RecognitionKind = iota
	KindNoSpeech
	KindDevice
	KindDenied
	KindNetwork
	KindAborted
	KindLanguage
)

// String returns the kind name.
func (k RecognitionKind) String() string {
	switch k {
	case KindNoSpeech:
		return "no-speech"
	case KindDevice:
		return "device"
	case KindDenied:
		return "denied"
	case KindNetwork:
		return "network"
	case KindAborted:
		return "aborted"
	case KindLanguage:
		return "language-unsupported"
	default:
		return "other"
	}
}

// RecognitionError is a classified speech recognition failure.
type RecognitionError struct {
	Kind    RecognitionKind
	Message string
	Cause   error
}

func (e *RecognitionError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RecognitionError) Unwrap() error {
	return e.Cause
}

// Sentinel errors.
var (
	// ErrTimeout is returned when no transcript arrives within the window.
	ErrTimeout = errors.New("speech recognition timed out")

	// ErrUnsupported is returned when no recognition capability is available.
	ErrUnsupported = errors.New("speech recognition is not available")
)

// KindOf extracts the recognition kind from an error, defaulting to KindOther.
func KindOf(err error) RecognitionKind {
	var re *RecognitionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOther
}

// SynthesisError is a remote text-to-speech failure.
type SynthesisError struct {
	Message string
	Cause   error
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}
