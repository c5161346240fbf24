package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"jobclean/common"
	"jobclean/schema"
	"jobclean/sink"
	"jobclean/source"
	"jobclean/status"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// A jobclean command: normalize, merge, run, daemon.  Validate resolves every setting that was not
// given on the command line from the settings file, so Perform sees final values.

type Command interface {
	Add(fs *flag.FlagSet)
	Summary() []string
	Validate() error
	Perform(ctx context.Context, stdout io.Writer) error
}

// Commands that take file names after the options.
type SetRestArgumentsAPI interface {
	SetRestArguments(args []string)
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// -v, -debug, -config-file, -env-file.  Settings is valid after Validate.

type SharedArgs struct {
	Verbose    bool
	Debug      bool
	ConfigFile string
	EnvFile    string

	Settings *common.Settings
	fs       *flag.FlagSet
}

func (s *SharedArgs) Add(fs *flag.FlagSet) {
	s.fs = fs
	fs.BoolVar(&s.Verbose, "v", false, "Print verbose diagnostics to stderr")
	fs.BoolVar(&s.Verbose, "verbose", false, "Print verbose diagnostics to stderr")
	fs.BoolVar(&s.Debug, "debug", false, "Print debugging diagnostics to stderr")
	fs.StringVar(&s.ConfigFile, "config-file", "",
		"Settings `filename` [default: ~/"+common.DefaultConfigName+" if it exists]")
	fs.StringVar(&s.EnvFile, "env-file", "",
		"Load environment variables from this dotenv `filename` before reading settings")
}

func (s *SharedArgs) Validate() error {
	// The environment has to be seeded before the settings are read, they expand it.
	if err := common.LoadEnvFile(s.EnvFile); err != nil {
		return err
	}
	settings, err := common.ReadSettings(s.ConfigFile)
	if err != nil {
		return err
	}
	s.Settings = settings
	if level := settings.String(common.PipelineLogLevel); level != "" {
		l, err := status.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("%s: %w", settings.Filename, err)
		}
		common.Log.SetLevel(l)
	}
	common.ApplyVerbosity(s.Verbose, s.Debug)
	return nil
}

// True if the flag was set on the command line.
func (s *SharedArgs) explicit(name string) bool {
	given := false
	if s.fs != nil {
		s.fs.Visit(func(f *flag.Flag) {
			if f.Name == name {
				given = true
			}
		})
	}
	return given
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Normalization options.  Options and Encoding are valid after Validate.

type PipelineArgs struct {
	Workers      uint
	Timezone     string
	DropSteps    bool
	KeepExtra    bool
	EncodingName string

	Options  schema.Options
	Encoding source.Encoding
}

func (p *PipelineArgs) Add(fs *flag.FlagSet) {
	fs.UintVar(&p.Workers, "workers", 0, "Convert rows with `n` parallel workers [default: 1]")
	fs.StringVar(&p.Timezone, "timezone", "",
		"Time `zone` for timestamps that carry none, eg Europe/Oslo or Local [default: UTC]")
	fs.BoolVar(&p.DropSteps, "drop-steps", false, "Drop job step rows (123.batch, 123.0)")
	fs.BoolVar(&p.KeepExtra, "keep-extra", false, "Keep input columns that have no canonical name")
	fs.StringVar(&p.EncodingName, "encoding", "",
		"Text `encoding` of delimited input: auto, utf-8, latin1 [default: auto]")
}

func (p *PipelineArgs) Validate(shared *SharedArgs) error {
	set := shared.Settings
	var e1, e2, e3, e4, e5 error
	e1 = set.ApplyUint(&p.Workers, common.PipelineWorkers)
	set.ApplyString(&p.Timezone, common.PipelineTimezone)
	e2 = set.ApplyBool(&p.DropSteps, shared.explicit("drop-steps"), common.PipelineDropSteps)
	e3 = set.ApplyBool(&p.KeepExtra, shared.explicit("keep-extra"), common.PipelineKeepExtra)
	set.ApplyString(&p.EncodingName, common.InputEncoding)
	p.Encoding, e4 = source.ParseEncoding(p.EncodingName)

	loc := time.UTC
	if p.Timezone != "" {
		loc, e5 = time.LoadLocation(p.Timezone)
		if e5 != nil {
			e5 = fmt.Errorf("Bad -timezone: %w", e5)
		}
	}
	p.Options = schema.Options{
		DropSteps: p.DropSteps,
		KeepExtra: p.KeepExtra,
		Workers:   int(p.Workers),
		Location:  loc,
	}
	return errors.Join(e1, e2, e3, e4, e5)
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// -o, -fmt.  The file sink is valid after Validate.

type OutputArgs struct {
	OutputFile string
	FormatName string

	Format sink.Format
}

func (o *OutputArgs) Add(fs *flag.FlagSet) {
	fs.StringVar(&o.OutputFile, "o", "", "Write canonical output to `filename`, - for stdout [default: stdout]")
	fs.StringVar(&o.FormatName, "fmt", "", "Output `format`: csv, freecsv, json [default: csv]")
}

func (o *OutputArgs) Validate(shared *SharedArgs) error {
	shared.Settings.ApplyString(&o.OutputFile, common.OutputFile)
	shared.Settings.ApplyString(&o.FormatName, common.OutputFormat)
	var err error
	o.Format, err = sink.ParseFormat(o.FormatName)
	return err
}

func (o *OutputArgs) FileSink(stdout io.Writer) *sink.File {
	return &sink.File{Filename: o.OutputFile, Format: o.Format, Stdout: stdout}
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Repeatable string arguments, as for -legacy a.csv -legacy b.csv.  A value may also be a
// comma-separated list.

type RepeatableString struct {
	xs *[]string
}

func NewRepeatableString(xs *[]string) *RepeatableString {
	return &RepeatableString{xs}
}

func (rs *RepeatableString) String() string {
	if rs == nil || rs.xs == nil {
		return ""
	}
	return strings.Join(*rs.xs, ",")
}

func (rs *RepeatableString) Set(s string) error {
	*rs.xs = append(*rs.xs, splitList(s)...)
	return nil
}

func splitList(s string) []string {
	var xs []string
	for _, x := range strings.Split(s, ",") {
		if x = strings.TrimSpace(x); x != "" {
			xs = append(xs, x)
		}
	}
	return xs
}
