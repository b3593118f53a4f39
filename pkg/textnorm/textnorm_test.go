// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-auth/pkg/textnorm"
)

/*
TestEmail verifies email folding: trim, NFC, lowercase.
*/
func TestEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already_canonical", "user@example.com", "user@example.com"},
		{"uppercase", "User@Example.COM", "user@example.com"},
		{"surrounding_whitespace", "  user@example.com \n", "user@example.com"},
		{"nfc_composition", "umé@example.com", "umé@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textnorm.Email(tt.input))
		})
	}
}

/*
TestName verifies name folding preserves case but collapses whitespace.
*/
func TestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Tai Bui", "Tai Bui"},
		{"inner_whitespace_run", "Tai \t  Bui", "Tai Bui"},
		{"surrounding_whitespace", "  Tai Bui ", "Tai Bui"},
		{"case_preserved", "TAI bui", "TAI bui"},
		{"nfc_composition", "Chloé", "Chloé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textnorm.Name(tt.input))
		})
	}
}
