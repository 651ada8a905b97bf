package cli

import (
	"strings"
	"testing"
)

// TestParseArgs tests flag and positional argument handling.
func TestParseArgs(t *testing.T) {
	t.Run("program path with defaults", func(t *testing.T) {
		config, err := ParseArgs([]string{"prog.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.ProgramPath != "prog.json" {
			t.Errorf("expected prog.json, got %q", config.ProgramPath)
		}
		if config.LogLevel != "info" {
			t.Errorf("expected default log level info, got %q", config.LogLevel)
		}
	})

	t.Run("log level flag", func(t *testing.T) {
		config, err := ParseArgs([]string{"-log-level", "debug", "prog.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.LogLevel != "debug" {
			t.Errorf("expected debug, got %q", config.LogLevel)
		}
	})

	t.Run("shorthand flag after the positional argument", func(t *testing.T) {
		config, err := ParseArgs([]string{"prog.json", "-l", "warn"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.LogLevel != "warn" {
			t.Errorf("expected warn, got %q", config.LogLevel)
		}
		if config.ProgramPath != "prog.json" {
			t.Errorf("expected prog.json, got %q", config.ProgramPath)
		}
	})

	t.Run("missing argument is an error", func(t *testing.T) {
		_, err := ParseArgs([]string{})
		if err == nil || !strings.Contains(err.Error(), "expected one argument, 0 given") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("extra arguments are an error", func(t *testing.T) {
		_, err := ParseArgs([]string{"a.json", "b.json"})
		if err == nil || !strings.Contains(err.Error(), "expected one argument, 2 given") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid log level is an error", func(t *testing.T) {
		_, err := ParseArgs([]string{"-log-level", "loud", "prog.json"})
		if err == nil || !strings.Contains(err.Error(), "invalid log level") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("help skips the positional requirement", func(t *testing.T) {
		config, err := ParseArgs([]string{"-h"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !config.ShowHelp {
			t.Error("expected ShowHelp")
		}
	})

	t.Run("environment variable supplies the log level", func(t *testing.T) {
		t.Setenv("JDL_LOG_LEVEL", "ERROR")
		config, err := ParseArgs([]string{"prog.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.LogLevel != "error" {
			t.Errorf("expected error level, got %q", config.LogLevel)
		}
	})

	t.Run("flag overrides the environment variable", func(t *testing.T) {
		t.Setenv("JDL_LOG_LEVEL", "error")
		config, err := ParseArgs([]string{"-l", "debug", "prog.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.LogLevel != "debug" {
			t.Errorf("expected debug, got %q", config.LogLevel)
		}
	})
}

// TestUsage sanity-checks the help text.
func TestUsage(t *testing.T) {
	text := Usage()
	for _, want := range []string{"jdl", "-log-level", "program-file"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected usage to mention %q", want)
		}
	}
}
