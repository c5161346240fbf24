package command

import (
	"context"
	"errors"
	"flag"
	"io"

	"github.com/google/uuid"

	"jobclean/common"
	"jobclean/pipeline"
	"jobclean/repr"
	"jobclean/sink"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// `jobclean normalize -era <era> [options] [-- file ...]` - normalize raw files of one era and
// write the canonical records to a file.  With no files the era's input from the settings is used.

type NormalizeCommand struct {
	SharedArgs
	PipelineArgs
	OutputArgs
	EraName string
	Sheet   string
	Files   []string

	era repr.Era
}

func (nc *NormalizeCommand) Add(fs *flag.FlagSet) {
	nc.SharedArgs.Add(fs)
	nc.PipelineArgs.Add(fs)
	nc.OutputArgs.Add(fs)
	fs.StringVar(&nc.EraName, "era", "", "Input `era`: legacy, current, sonar (required)")
	fs.StringVar(&nc.Sheet, "sheet", "", "Worksheet `name` of a legacy workbook [default: the first]")
}

func (nc *NormalizeCommand) SetRestArguments(args []string) {
	nc.Files = args
}

func (nc *NormalizeCommand) Summary() []string {
	return []string{
		"Normalize raw accounting exports of one era into canonical records.",
	}
}

func (nc *NormalizeCommand) Validate() error {
	if err := nc.SharedArgs.Validate(); err != nil {
		return err
	}
	var e1 error
	era, ok := repr.ParseEra(nc.EraName)
	if !ok {
		e1 = errors.New("-era must be legacy, current or sonar")
	}
	nc.era = era
	if len(nc.Files) == 0 && ok {
		nc.Files = settingsInputs(&nc.SharedArgs, era)
	}
	if nc.Sheet == "" {
		nc.SharedArgs.Settings.ApplyString(&nc.Sheet, common.InputLegacySheet)
	}
	var e2 error
	if len(nc.Files) == 0 {
		e2 = errors.New("No input files")
	}
	return errors.Join(
		e1,
		e2,
		nc.PipelineArgs.Validate(&nc.SharedArgs),
		nc.OutputArgs.Validate(&nc.SharedArgs),
	)
}

func (nc *NormalizeCommand) Inputs() []pipeline.Input {
	return eraInputs(nc.era, nc.Files, nc.Sheet)
}

func (nc *NormalizeCommand) Perform(ctx context.Context, stdout io.Writer) error {
	_, err := pipeline.Run(ctx, &pipeline.Config{
		Inputs:   nc.Inputs(),
		Encoding: nc.Encoding,
		Options:  nc.Options,
		Sinks:    []sink.Sink{nc.FileSink(stdout)},
		RunID:    uuid.New(),
	})
	return err
}

func eraInputs(era repr.Era, files []string, sheet string) []pipeline.Input {
	var inputs []pipeline.Input
	for _, f := range files {
		switch era {
		case repr.EraLegacy:
			inputs = append(inputs, pipeline.LegacyInput(f, sheet))
		case repr.EraCurrent:
			inputs = append(inputs, pipeline.Input{Kind: pipeline.KindCurrent, Path: f})
		case repr.EraSonar:
			inputs = append(inputs, pipeline.Input{Kind: pipeline.KindSonar, Path: f})
		}
	}
	return inputs
}

func settingsInputs(shared *SharedArgs, era repr.Era) []string {
	switch era {
	case repr.EraLegacy:
		return splitList(shared.Settings.String(common.InputLegacy))
	case repr.EraCurrent:
		return splitList(shared.Settings.String(common.InputCurrent))
	case repr.EraSonar:
		return splitList(shared.Settings.String(common.InputSonar))
	}
	return nil
}
