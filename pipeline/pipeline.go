// One run of the cleaning pipeline: read each input, normalize it against its era's schema,
// derive the metrics, merge everything and hand the result to the sinks.
//
// Inputs are processed concurrently and independently; the merge waits for all of them.  A schema
// mismatch in any input fails the run before any sink is written.  A failing sink does not stop
// the others, the failures are reported together.

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobclean/common"
	"jobclean/merge"
	"jobclean/repr"
	"jobclean/schema"
	"jobclean/sink"
	"jobclean/source"
	"jobclean/status"
)

type Config struct {
	Inputs   []Input
	Encoding source.Encoding
	Options  schema.Options

	// Per-era schema overrides; the default schemas are used for eras not in the map.
	Schemas map[repr.Era]*schema.Schema

	Sinks []sink.Sink

	// Generated if uuid.Nil
	RunID uuid.UUID

	// common.Log if nil
	Log status.Logger
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Inputs) == 0 {
		errs = append(errs, errors.New("No input files"))
	}
	for _, in := range c.Inputs {
		if err := in.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Result struct {
	RunID   uuid.UUID
	Dataset repr.Dataset
	Reports []schema.Report // in input order; canonical inputs have none
}

func Run(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = common.Log
	}
	runID := cfg.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	log.Infof("Run %s: %d inputs", runID, len(cfg.Inputs))

	sets := make([]repr.Dataset, len(cfg.Inputs))
	reports := make([]*schema.Report, len(cfg.Inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range cfg.Inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, rep, err := ReadInput(in, cfg.Encoding, cfg.schemaFor(in), cfg.Options)
			if err != nil {
				return err
			}
			sets[i], reports[i] = ds, rep
			logReport(log, in, ds, rep)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := merge.Merge(sets...)
	log.Infof("Run %s: %d records", runID, merged.Len())

	result := &Result{RunID: runID, Dataset: merged}
	for _, rep := range reports {
		if rep != nil {
			result.Reports = append(result.Reports, *rep)
		}
	}

	var errs []error
	for _, s := range cfg.Sinks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.Write(ctx, runID, merged); err != nil {
			log.Errorf("Sink %s failed: %v", s.Name(), err)
			errs = append(errs, fmt.Errorf("Sink %s\n%w", s.Name(), err))
			continue
		}
		log.Infof("Wrote %d records to %s", merged.Len(), s.Name())
	}
	return result, errors.Join(errs...)
}

func (c *Config) schemaFor(in Input) *schema.Schema {
	if s, found := c.Schemas[in.Kind.Era()]; found && s != nil {
		return s
	}
	return schema.ForEra(in.Kind.Era())
}

func logReport(log status.Logger, in Input, ds repr.Dataset, rep *schema.Report) {
	if rep == nil {
		log.Infof("%s: %d canonical records", in.Path, ds.Len())
		return
	}
	log.Infof(
		"%s: %s era, %d rows, %d records, %d steps dropped",
		in.Path, rep.Era, rep.Rows, rep.Records, rep.DroppedSteps)
	if len(rep.Synthesized) > 0 {
		log.Debugf("%s: synthesized columns %v", in.Path, rep.Synthesized)
	}
	if rep.Repaired > 0 {
		log.Warningf("%s: %d malformed rows repaired", in.Path, rep.Repaired)
	}
	if n := rep.SoftErrors(); n > 0 {
		log.Warningf("%s: %d values could not be interpreted: %v", in.Path, n, rep.Failures)
	}
}
