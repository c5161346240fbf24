// `jobclean` -- Normalize and merge Slurm accounting exports from several eras
//
// Run `jobclean help` for brief help and `jobclean <command> -h` for the options of a command.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"jobclean/command"
	"jobclean/common"
)

func main() {
	cmd := commandLine()
	if err := cmd.Perform(context.Background(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commandLine() command.Command {
	out := flag.CommandLine.Output()

	if len(os.Args) < 2 {
		fmt.Fprintf(out, "Required operation missing, try `jobclean help`\n")
		os.Exit(2)
	}

	var cmd command.Command
	switch verb := os.Args[1]; verb {
	case "help", "-h":
		fmt.Fprintf(out, "Usage: %s command [options] [-- file ...]\n", os.Args[0])
		fmt.Fprintf(out, "Commands:\n")
		fmt.Fprintf(out, "  normalize - normalize raw exports of one era\n")
		fmt.Fprintf(out, "  merge     - merge canonical files\n")
		fmt.Fprintf(out, "  run       - normalize and merge everything, write to all sinks\n")
		fmt.Fprintf(out, "  daemon    - serve normalization over HTTP\n")
		fmt.Fprintf(out, "  version   - print information about the program\n")
		fmt.Fprintf(out, "  help      - print this message\n")
		fmt.Fprintf(out, "Each command accepts -h to further explain options.\n")
		os.Exit(0)
	case "normalize":
		cmd = new(command.NormalizeCommand)
	case "merge":
		cmd = new(command.MergeCommand)
	case "run":
		cmd = new(command.RunCommand)
	case "daemon":
		cmd = new(command.DaemonCommand)
	case "version":
		fmt.Printf("jobclean version(%s)\n", common.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(out, "Unknown operation %s, try `jobclean help`\n", verb)
		os.Exit(2)
	}

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cmd.Add(fs)
	_, takesFiles := cmd.(command.SetRestArgumentsAPI)

	fs.Usage = func() {
		restargs := ""
		if takesFiles {
			restargs = " [-- file ...]"
		}
		fmt.Fprintf(out, "Usage: %s %s [options]%s\n\n", os.Args[0], os.Args[1], restargs)
		for _, s := range cmd.Summary() {
			fmt.Fprintln(out, "  ", s)
		}
		fmt.Fprintln(out, "\nOptions:")
		fs.PrintDefaults()
		if takesFiles {
			fmt.Fprintf(out, "  file ...\n    \tInput files\n")
		}
	}
	fs.Parse(os.Args[2:])

	if rest := fs.Args(); len(rest) > 0 {
		if fileCmd, ok := cmd.(command.SetRestArgumentsAPI); ok {
			fileCmd.SetRestArguments(rest)
		} else {
			fmt.Fprintf(out, "Rest arguments not accepted by `%s`.\n", os.Args[1])
			os.Exit(2)
		}
	}

	if err := cmd.Validate(); err != nil {
		fmt.Fprintf(out, "Bad arguments, try -h\n%v\n", err.Error())
		os.Exit(2)
	}
	return cmd
}
