// Package cli parses command-line arguments for the jdl interpreter.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Config holds the settings parsed from command-line arguments.
type Config struct {
	ProgramPath string // Path to the program file (the single positional argument)
	LogLevel    string // Log level (debug, info, warn, error)
	ShowHelp    bool   // Help flag
}

// ParseArgs parses command-line arguments into a Config. Exactly one
// positional argument, the program file, is required unless help was
// requested. The JDL_LOG_LEVEL environment variable supplies the log level
// when no flag overrides it.
func ParseArgs(args []string) (*Config, error) {
	// Reorder so flags may also appear after the positional argument.
	reordered := reorderArgs(args)

	fs := flag.NewFlagSet("jdl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (shorthand)")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reordered); err != nil {
		return nil, err
	}

	// Environment variable supplies the log level unless a flag set it.
	if config.LogLevel == "info" {
		if env := os.Getenv("JDL_LOG_LEVEL"); env != "" {
			config.LogLevel = strings.ToLower(env)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.ShowHelp {
		return config, nil
	}

	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected one argument, %d given", fs.NArg())
	}
	config.ProgramPath = fs.Arg(0)

	return config, nil
}

// reorderArgs moves flags ahead of positional arguments so both orders work.
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	boolFlags := map[string]bool{
		"-h": true, "--h": true, "-help": true, "--help": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)
			// A value-taking flag without "=" consumes the next argument.
			if !boolFlags[arg] && !strings.Contains(arg, "=") &&
				i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// Usage returns the help text.
func Usage() string {
	return `jdl - JDL interpreter

Usage:
  jdl [flags] <program-file>

The program file is a JSON or YAML instruction-tree document.

Flags:
  -l, -log-level <level>   log level: debug, info, warn, error (default "info")
  -h, -help                show this help

Environment:
  JDL_LOG_LEVEL            default log level when no flag is given
`
}
