package common

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/joho/godotenv"
	ini "github.com/lars-t-hansen/ini"
)

// Settings file.  It is optional; it lives in ~/.jobclean unless -config-file names another one.
// Every value is subject to environment variable expansion, and the environment may be seeded
// from a dotenv file named by `env-file` in the [pipeline] section or by -env-file.
//
// Command line flags override values from the settings file, which override built-in defaults.

const DefaultConfigName = ".jobclean"

// MT: Constant after initialization
var (
	p = ini.NewParser()

	inputSection      = p.AddSection("input")
	InputLegacy       = inputSection.AddString("legacy")
	InputLegacySheet  = inputSection.AddString("legacy-sheet")
	InputCurrent      = inputSection.AddString("current")
	InputSonar        = inputSection.AddString("sonar")
	InputEncoding     = inputSection.AddString("encoding")
	outputSection     = p.AddSection("output")
	OutputFile        = outputSection.AddString("file")
	OutputFormat      = outputSection.AddString("format")
	postgresSection   = p.AddSection("postgres")
	PostgresURI       = postgresSection.AddString("uri")
	PostgresTable     = postgresSection.AddString("table")
	kafkaSection      = p.AddSection("kafka")
	KafkaBrokers      = kafkaSection.AddString("brokers")
	KafkaTopic        = kafkaSection.AddString("topic")
	pipelineSection   = p.AddSection("pipeline")
	PipelineWorkers   = pipelineSection.AddString("workers")
	PipelineTimezone  = pipelineSection.AddString("timezone")
	PipelineDropSteps = pipelineSection.AddString("drop-steps")
	PipelineKeepExtra = pipelineSection.AddString("keep-extra")
	PipelineLogLevel  = pipelineSection.AddString("log-level")
	PipelineEnvFile   = pipelineSection.AddString("env-file")
	daemonSection     = p.AddSection("daemon")
	DaemonPort        = daemonSection.AddString("port")
	DaemonAuthFile    = daemonSection.AddString("auth-file")
)

// A Settings without a store (no file) answers "not present" to everything.

type Settings struct {
	Filename string
	store    *ini.Store
}

// Read the settings file `filename`, or the default file if `filename` is "".  A missing default
// file is not an error; a missing named file is.

func ReadSettings(filename string) (*Settings, error) {
	named := filename != ""
	if !named {
		home := os.Getenv("HOME")
		if home == "" {
			return &Settings{}, nil
		}
		filename = path.Join(path.Clean(home), DefaultConfigName)
	}
	input, err := os.Open(filename)
	if err != nil {
		if !named && errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("Failed to open settings file %s\n%w", filename, err)
	}
	defer input.Close()
	store, err := p.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse settings file %s\n%w", filename, err)
	}
	s := &Settings{Filename: filename, store: store}
	if s.Present(PipelineEnvFile) {
		if err := LoadEnvFile(s.String(PipelineEnvFile)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Seed the environment from a dotenv file.  Variables already in the environment win.

func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := godotenv.Load(filename); err != nil {
		return fmt.Errorf("Failed to load environment file %s\n%w", filename, err)
	}
	return nil
}

func (s *Settings) Present(f *ini.Field) bool {
	return s != nil && s.store != nil && f.Present(s.store)
}

func (s *Settings) String(f *ini.Field) string {
	if !s.Present(f) {
		return ""
	}
	return os.ExpandEnv(f.StringVal(s.store))
}

// Set *sp from the settings if *sp is still empty.  Returns true if a value was applied.

func (s *Settings) ApplyString(sp *string, f *ini.Field) bool {
	if *sp != "" || !s.Present(f) {
		return false
	}
	*sp = s.String(f)
	return true
}

// Set *bp from the settings unless the flag was given explicitly.

func (s *Settings) ApplyBool(bp *bool, explicit bool, f *ini.Field) error {
	if explicit || !s.Present(f) {
		return nil
	}
	b, err := strconv.ParseBool(s.String(f))
	if err != nil {
		return fmt.Errorf("Bad boolean value in %s: %w", s.Filename, err)
	}
	*bp = b
	return nil
}

// Set *up from the settings if *up is still zero.

func (s *Settings) ApplyUint(up *uint, f *ini.Field) error {
	if *up != 0 || !s.Present(f) {
		return nil
	}
	n, err := strconv.ParseUint(s.String(f), 10, 32)
	if err != nil {
		return fmt.Errorf("Bad numeric value in %s: %w", s.Filename, err)
	}
	*up = uint(n)
	return nil
}
