package cli

import (
	"flag"
	"fmt"

	"modlink/internal/core/config"
)

const versionString = "0.1.0"

const usage = `usage: modlink [flags] <command> [args]

commands:
  build              transform every source file under the project root
  file <path>        transform one file and print the result as JSON
  graph              print the module graph (-format dot|text, -trace <from> <to>)
  watch              build, then rebuild on change until interrupted
`

type cliOptions struct {
	configPath string
	format     string
	trace      bool
	verbose    bool
	version    bool
	command    string
	args       []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("modlink", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage+"\nflags:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", config.DefaultFile, "Path to config file")
	fs.StringVar(&opts.format, "format", "text", "Graph output format: text or dot")
	fs.BoolVar(&opts.trace, "trace", false, "Print the shortest require chain between two module paths")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return opts, nil
	}
	// Flags may also follow the command: modlink graph -format dot.
	opts.command = rest[0]
	if err := fs.Parse(rest[1:]); err != nil {
		return cliOptions{}, err
	}
	opts.args = fs.Args()
	return opts, nil
}

func validateCommand(opts cliOptions) error {
	switch opts.command {
	case "":
		return fmt.Errorf("missing command\n\n%s", usage)
	case "build", "watch":
		if len(opts.args) > 0 {
			return fmt.Errorf("%s takes no arguments", opts.command)
		}
	case "file":
		if len(opts.args) != 1 {
			return fmt.Errorf("file requires exactly one path argument")
		}
	case "graph":
		if opts.format != "text" && opts.format != "dot" {
			return fmt.Errorf("unknown graph format %q; use text or dot", opts.format)
		}
		if opts.trace && len(opts.args) != 2 {
			return fmt.Errorf("trace mode requires two module arguments: modlink graph -trace <from> <to>")
		}
		if !opts.trace && len(opts.args) > 0 {
			return fmt.Errorf("graph takes no arguments without -trace")
		}
	default:
		return fmt.Errorf("unknown command %q\n\n%s", opts.command, usage)
	}
	if opts.trace && opts.command != "graph" {
		return fmt.Errorf("-trace only applies to the graph command")
	}
	return nil
}
