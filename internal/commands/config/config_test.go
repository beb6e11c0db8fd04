// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/gobbyhq/gobby/internal/commands/shared"
)

func TestConfigShowCommand(t *testing.T) {
	tests := []struct {
		name        string
		setupConfig string
		wantErr     bool
	}{
		{
			name:        "no config file",
			setupConfig: "",
			wantErr:     true,
		},
		{
			name: "valid config",
			setupConfig: `default_provider: claude-code
providers:
  claude-code:
    type: claude-code
`,
			wantErr: false,
		},
		{
			name: "config with API key",
			setupConfig: `default_provider: anthropic
providers:
  anthropic:
    type: anthropic
    api_key: sk-ant-1234567890abcdef
`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temp directory for config
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")

			// Set up config if provided
			if tt.setupConfig != "" {
				if err := os.WriteFile(configPath, []byte(tt.setupConfig), 0600); err != nil {
					t.Fatalf("Failed to write test config: %v", err)
				}
			}

			// Always override config path (even for "no config" test)
			shared.SetConfigPathForTest(configPath)
			defer func() { shared.SetConfigPathForTest("") }()

			// Create and run command
			cmd := newConfigShowCommand()
			cmd.SetArgs([]string{})

			err := cmd.Execute()

			if (err != nil) != tt.wantErr {
				t.Errorf("config show command error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigPathCommand(t *testing.T) {
	cmd := newConfigPathCommand()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("config path command failed: %v", err)
	}
}

func TestConfigShowJSON(t *testing.T) {
	// Create temp directory for config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	config := `default_provider: claude-code
providers:
  claude-code:
    type: claude-code
`
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Override config path
	shared.SetConfigPathForTest(configPath)
	defer func() { shared.SetConfigPathForTest("") }()

	// Create root command with --json flag
	rootCmd := &cobra.Command{Use: "test"}
	_, _, jsonPtr, _, _ := shared.RegisterFlagPointers()
	rootCmd.PersistentFlags().BoolVar(jsonPtr, "json", false, "JSON output")

	configCmd := NewConfigCommand()
	rootCmd.AddCommand(configCmd)

	// Run with --json flag
	rootCmd.SetArgs([]string{"config", "show", "--json"})

	err := rootCmd.Execute()
	if err != nil {
		t.Errorf("config show --json failed: %v", err)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{
			name: "normal key",
			key:  "sk-ant-1234567890abcdef",
			want: "sk-a***************cdef", // 4 chars + (24-8=16 stars) + 4 chars
		},
		{
			name: "short key",
			key:  "short",
			want: "****",
		},
		{
			name: "env var reference",
			key:  "${ANTHROPIC_API_KEY}",
			want: "${ANTHROPIC_API_KEY}",
		},
		{
			name: "empty key",
			key:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskAPIKey(tt.key)
			if got != tt.want {
				t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	// Create temp directory for config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	config := `default_provider: claude-code
providers:
  claude-code:
    type: claude-code
`
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Override config path
	shared.SetConfigPathForTest(configPath)
	defer func() { shared.SetConfigPathForTest("") }()

	// Test config command without subcommand (should default to show)
	cmd := NewConfigCommand()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("config command (default to show) failed: %v", err)
	}
}

func TestConfigShowMasksAPIKeys(t *testing.T) {
	// Create temp directory for config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Config with API key
	config := `default_provider: anthropic
providers:
  anthropic:
    type: anthropic
    api_key: sk-ant-REDACTED
`
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Override config path
	shared.SetConfigPathForTest(configPath)
	defer func() { shared.SetConfigPathForTest("") }()

	// Create and run command
	cmd := newConfigShowCommand()
	cmd.SetArgs([]string{})

	// Capture output to verify masking
	// For now, just verify it doesn't fail
	err := cmd.Execute()
	if err != nil {
		t.Errorf("config show failed: %v", err)
	}

	// In a real test, we'd capture stdout and verify the API key is masked
	// This would require redirecting os.Stdout, which is more complex
}

func TestConfigShowWithEnvVarAPIKey(t *testing.T) {
	// Create temp directory for config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Config with env var reference
	config := `default_provider: anthropic
providers:
  anthropic:
    type: anthropic
    api_key: ${ANTHROPIC_API_KEY}
`
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Override config path
	shared.SetConfigPathForTest(configPath)
	defer func() { shared.SetConfigPathForTest("") }()

	// Create and run command
	cmd := newConfigShowCommand()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if err != nil {
		// Expected to fail if env var not set, but should still not mask the reference
		if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
			t.Errorf("config show should preserve env var references in error messages")
		}
	}
}
