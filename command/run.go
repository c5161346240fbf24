package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"jobclean/common"
	"jobclean/pipeline"
	"jobclean/repr"
	"jobclean/sink"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// `jobclean run [options]` - the full batch: every era's inputs, merged, to every configured sink.
//
// A file sink is used if -o is given or nothing else is configured, so a bare run prints CSV.

type RunCommand struct {
	SharedArgs
	PipelineArgs
	OutputArgs
	Legacy        []string
	Current       []string
	Sonar         []string
	Canonical     []string
	Sheet         string
	PostgresURI   string
	PostgresTable string
	KafkaBrokers  []string
	KafkaTopic    string
}

func (rc *RunCommand) Add(fs *flag.FlagSet) {
	rc.SharedArgs.Add(fs)
	rc.PipelineArgs.Add(fs)
	rc.OutputArgs.Add(fs)
	fs.Var(NewRepeatableString(&rc.Legacy), "legacy", "Legacy export `filename` (csv or xlsx), repeatable")
	fs.Var(NewRepeatableString(&rc.Current), "current", "Current pipe-delimited export `filename`, repeatable")
	fs.Var(NewRepeatableString(&rc.Sonar), "sonar", "Sonar JSON job data `filename`, repeatable")
	fs.Var(NewRepeatableString(&rc.Canonical), "canonical", "Canonical CSV `filename` to merge in, repeatable")
	fs.StringVar(&rc.Sheet, "sheet", "", "Worksheet `name` of legacy workbooks [default: the first]")
	fs.StringVar(&rc.PostgresURI, "postgres", "", "Append records to the database at this `uri`")
	fs.StringVar(&rc.PostgresTable, "table", "", "Database `table` [default: "+sink.DefaultTable+"]")
	fs.Var(NewRepeatableString(&rc.KafkaBrokers), "kafka", "Produce records to these `brokers` (host:port,...)")
	fs.StringVar(&rc.KafkaTopic, "topic", "", "Kafka `topic` [default: "+sink.DefaultTopic+"]")
}

func (rc *RunCommand) Summary() []string {
	return []string{
		"Normalize and merge all inputs and write the result to the configured",
		"sinks: a file, a PostgreSQL table and/or a Kafka topic.",
	}
}

func (rc *RunCommand) Validate() error {
	if err := rc.SharedArgs.Validate(); err != nil {
		return err
	}
	set := rc.Settings
	if len(rc.Legacy) == 0 {
		rc.Legacy = settingsInputs(&rc.SharedArgs, repr.EraLegacy)
	}
	if len(rc.Current) == 0 {
		rc.Current = settingsInputs(&rc.SharedArgs, repr.EraCurrent)
	}
	if len(rc.Sonar) == 0 {
		rc.Sonar = settingsInputs(&rc.SharedArgs, repr.EraSonar)
	}
	set.ApplyString(&rc.Sheet, common.InputLegacySheet)
	set.ApplyString(&rc.PostgresURI, common.PostgresURI)
	set.ApplyString(&rc.PostgresTable, common.PostgresTable)
	if len(rc.KafkaBrokers) == 0 {
		rc.KafkaBrokers = splitList(set.String(common.KafkaBrokers))
	}
	set.ApplyString(&rc.KafkaTopic, common.KafkaTopic)

	var e1 error
	if len(rc.Inputs()) == 0 {
		e1 = errors.New("No input files")
	}
	return errors.Join(
		e1,
		rc.PipelineArgs.Validate(&rc.SharedArgs),
		rc.OutputArgs.Validate(&rc.SharedArgs),
	)
}

func (rc *RunCommand) Inputs() []pipeline.Input {
	inputs := eraInputs(repr.EraLegacy, rc.Legacy, rc.Sheet)
	inputs = append(inputs, eraInputs(repr.EraCurrent, rc.Current, "")...)
	inputs = append(inputs, eraInputs(repr.EraSonar, rc.Sonar, "")...)
	for _, f := range rc.Canonical {
		inputs = append(inputs, pipeline.Input{Kind: pipeline.KindCanonical, Path: f})
	}
	return inputs
}

func (rc *RunCommand) wantFile() bool {
	return rc.OutputFile != "" || rc.PostgresURI == "" && len(rc.KafkaBrokers) == 0
}

func (rc *RunCommand) Perform(ctx context.Context, stdout io.Writer) error {
	var sinks []sink.Sink
	if rc.wantFile() {
		sinks = append(sinks, rc.FileSink(stdout))
	}
	if rc.PostgresURI != "" {
		conn, err := sink.ConnectPostgres(ctx, rc.PostgresURI)
		if err != nil {
			return err
		}
		defer conn.Close(context.Background())
		sinks = append(sinks, &sink.Postgres{DB: conn, Table: rc.PostgresTable})
	}
	if len(rc.KafkaBrokers) > 0 {
		cl, err := sink.NewKafkaClient(rc.KafkaBrokers)
		if err != nil {
			return err
		}
		defer cl.Close()
		sinks = append(sinks, &sink.Kafka{Producer: cl, Topic: rc.KafkaTopic})
	}

	res, err := pipeline.Run(ctx, &pipeline.Config{
		Inputs:   rc.Inputs(),
		Encoding: rc.Encoding,
		Options:  rc.Options,
		Sinks:    sinks,
	})
	if res != nil {
		soft := 0
		for i := range res.Reports {
			soft += res.Reports[i].SoftErrors()
		}
		common.Log.Infof("Run %s done: %d records, %d soft errors", res.RunID, res.Dataset.Len(), soft)
	}
	if err != nil {
		return fmt.Errorf("Run failed\n%w", err)
	}
	return nil
}
