package main

import (
	"fmt"
	"os"

	"github.com/jdl-lang/jdl/pkg/cli"
	"github.com/jdl-lang/jdl/pkg/interp"
	"github.com/jdl-lang/jdl/pkg/loader"
	"github.com/jdl-lang/jdl/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run loads and evaluates the program named by the single positional
// argument, returning the process exit status.
func run(args []string) int {
	config, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, cli.Usage())
		return 2
	}
	if config.ShowHelp {
		fmt.Print(cli.Usage())
		return 0
	}

	if err := logger.InitLogger(config.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	prog, err := loader.LoadFile(config.ProgramPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ip := interp.New(interp.WithContext(config.ProgramPath))
	if err := ip.RunProgram(prog.Code); err != nil {
		return 1
	}
	return 0
}
