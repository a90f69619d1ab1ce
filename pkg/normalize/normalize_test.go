// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pulseapp/pulse/pkg/normalize"
)

/*
TestUsername verifies case folding, whitespace trimming, and compatibility
normalization of handles.
*/
func TestUsername(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase_passthrough", "jane_doe", "jane_doe"},
		{"uppercase", "JaneDoe", "janedoe"},
		{"surrounding_space", "  jane  ", "jane"},
		{"fullwidth", "ｊａｎｅ", "jane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Username(tt.input))
		})
	}
}

/*
TestEmail verifies email canonicalization.
*/
func TestEmail(t *testing.T) {
	assert.Equal(t, "jane@pulse.app", normalize.Email(" Jane@Pulse.App "))
	assert.Equal(t, "jane@pulse.app", normalize.Email("jane@pulse.app"))
}
