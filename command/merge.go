package command

import (
	"context"
	"errors"
	"flag"
	"io"

	"jobclean/pipeline"
	"jobclean/sink"
)

// `jobclean merge [options] -- file ...` - merge canonical files produced by earlier runs.  The
// derived columns are recomputed, so files from older versions come out current.

type MergeCommand struct {
	SharedArgs
	OutputArgs
	Files []string
}

func (mc *MergeCommand) Add(fs *flag.FlagSet) {
	mc.SharedArgs.Add(fs)
	mc.OutputArgs.Add(fs)
}

func (mc *MergeCommand) SetRestArguments(args []string) {
	mc.Files = args
}

func (mc *MergeCommand) Summary() []string {
	return []string{
		"Merge canonical CSV files into one, ordered by job start time.",
	}
}

func (mc *MergeCommand) Validate() error {
	if err := mc.SharedArgs.Validate(); err != nil {
		return err
	}
	var e1 error
	if len(mc.Files) == 0 {
		e1 = errors.New("No input files")
	}
	return errors.Join(e1, mc.OutputArgs.Validate(&mc.SharedArgs))
}

func (mc *MergeCommand) Perform(ctx context.Context, stdout io.Writer) error {
	inputs := make([]pipeline.Input, 0, len(mc.Files))
	for _, f := range mc.Files {
		inputs = append(inputs, pipeline.Input{Kind: pipeline.KindCanonical, Path: f})
	}
	_, err := pipeline.Run(ctx, &pipeline.Config{
		Inputs: inputs,
		Sinks:  []sink.Sink{mc.FileSink(stdout)},
	})
	return err
}
