package daemon

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"jobclean/merge"
	"jobclean/pipeline"
	"jobclean/schema"
	"jobclean/sink"
	"jobclean/source"
)

// Uploads are whole accounting dumps.
const maxUploadBytes = 256 << 20

type NormalizeInput struct {
	Kind      string `path:"kind" enum:"legacy-csv,legacy-xlsx,current,sonar" doc:"Input file kind"`
	Encoding  string `query:"encoding" enum:"auto,utf-8,latin1" default:"auto" doc:"Text encoding of delimited input"`
	Sheet     string `query:"sheet" doc:"Worksheet to read, the first if empty (legacy-xlsx only)"`
	Format    string `query:"format" enum:"json,csv,freecsv" default:"json" doc:"Output format"`
	DropSteps bool   `query:"drop-steps" doc:"Drop job step rows"`
	RawBody   []byte
}

type NormalizeOutput struct {
	ContentType string `header:"Content-Type"`
	Records     int    `header:"X-Records"`
	SoftErrors  int    `header:"X-Soft-Errors"`
	Body        []byte
}

type HealthOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

var contentTypes = map[sink.Format]string{
	sink.FormatJSON:    "application/json",
	sink.FormatCSV:     "text/csv; charset=utf-8",
	sink.FormatFreeCSV: "text/plain; charset=utf-8",
}

func (s *Server) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:  "normalize",
		Method:       http.MethodPost,
		Path:         "/normalize/{kind}",
		Summary:      "Normalize an uploaded accounting dump",
		Description:  "Returns the canonical records for the upload.  A file that lacks required columns yields 422.",
		MaxBodyBytes: maxUploadBytes,
	}, s.normalize)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
	}, func(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
		out := new(HealthOutput)
		out.Body.Status = "ok"
		out.Body.Version = s.version
		return out, nil
	})
}

func (s *Server) normalize(ctx context.Context, in *NormalizeInput) (*NormalizeOutput, error) {
	kind, err := pipeline.ParseKind(in.Kind)
	if err == nil && kind == pipeline.KindCanonical {
		err = errors.New("Canonical input is not accepted for upload")
	}
	if err != nil {
		s.metrics.recordOutcome(in.Kind, "bad-request")
		return nil, huma.Error400BadRequest(err.Error())
	}
	enc, err := source.ParseEncoding(in.Encoding)
	if err != nil {
		s.metrics.recordOutcome(in.Kind, "bad-request")
		return nil, huma.Error400BadRequest(err.Error())
	}
	format, err := sink.ParseFormat(in.Format)
	if err != nil {
		s.metrics.recordOutcome(in.Kind, "bad-request")
		return nil, huma.Error400BadRequest(err.Error())
	}
	opts := s.options
	opts.DropSteps = opts.DropSteps || in.DropSteps

	ds, rep, err := pipeline.NormalizeReader(
		kind, bytes.NewReader(in.RawBody), "upload", in.Sheet, enc, nil, opts)
	switch {
	case errors.Is(err, schema.ErrSchemaMismatch):
		s.metrics.recordOutcome(in.Kind, "schema-mismatch")
		s.log.Warningf("Rejected %s upload: %v", kind, err)
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, source.ErrFormat):
		s.metrics.recordOutcome(in.Kind, "malformed")
		s.log.Warningf("Rejected %s upload: %v", kind, err)
		return nil, huma.Error400BadRequest(err.Error())
	case err != nil:
		s.metrics.recordOutcome(in.Kind, "error")
		s.log.Errorf("Failed %s upload: %v", kind, err)
		return nil, huma.Error500InternalServerError("Normalization failed")
	}

	ds = merge.Merge(ds)
	var buf bytes.Buffer
	if err := sink.Encode(&buf, format, ds); err != nil {
		s.metrics.recordOutcome(in.Kind, "error")
		return nil, huma.Error500InternalServerError("Encoding failed")
	}

	s.metrics.recordOutcome(in.Kind, "ok")
	s.metrics.recordRun(in.Kind, ds.Len(), rep.SoftErrors(), rep.DroppedSteps)
	if n := rep.SoftErrors(); n > 0 {
		s.log.Infof("%s upload: %d records, %d soft errors", kind, ds.Len(), n)
	}
	return &NormalizeOutput{
		ContentType: contentTypes[format],
		Records:     ds.Len(),
		SoftErrors:  rep.SoftErrors(),
		Body:        buf.Bytes(),
	}, nil
}

func portAddr(port uint) string {
	return ":" + strconv.FormatUint(uint64(port), 10)
}
