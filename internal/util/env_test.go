package util

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("COPILOT_TEST_SET", "value")

	if got := GetEnv("COPILOT_TEST_SET"); got != "value" {
		t.Fatalf("GetEnv() = %q, want %q", got, "value")
	}
	if got := GetEnv("COPILOT_TEST_UNSET"); got != "" {
		t.Fatalf("GetEnv() = %q, want empty", got)
	}
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("COPILOT_TEST_MODEL", "llama3.1")

	if got := GetEnvString("COPILOT_TEST_MODEL", "gpt-4o-mini"); got != "llama3.1" {
		t.Fatalf("GetEnvString() = %q, want %q", got, "llama3.1")
	}
	if got := GetEnvString("COPILOT_TEST_UNSET", "gpt-4o-mini"); got != "gpt-4o-mini" {
		t.Fatalf("GetEnvString() = %q, want default", got)
	}
}

func TestGetEnvNumeric(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  float64
	}{
		{name: "unset uses default", want: 42},
		{name: "integer", value: "120", set: true, want: 120},
		{name: "float", value: "1.5", set: true, want: 1.5},
		{name: "garbage uses default", value: "soon", set: true, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("COPILOT_TEST_NUM", tt.value)
			}
			if got := GetEnvNumeric("COPILOT_TEST_NUM", 42); got != tt.want {
				t.Fatalf("GetEnvNumeric() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		set          bool
		defaultValue bool
		want         bool
	}{
		{name: "unset uses default", defaultValue: true, want: true},
		{name: "true", value: "true", set: true, want: true},
		{name: "false", value: "false", set: true, defaultValue: true, want: false},
		{name: "garbage uses default", value: "1", set: true, defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("COPILOT_TEST_BOOL", tt.value)
			}
			if got := GetEnvBool("COPILOT_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Fatalf("GetEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}
