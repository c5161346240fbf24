package status

import (
	"strings"
	"testing"
)

type recorder struct {
	msgs []string
}

func (r *recorder) Debug(m string) error   { r.msgs = append(r.msgs, "D:"+m); return nil }
func (r *recorder) Info(m string) error    { r.msgs = append(r.msgs, "I:"+m); return nil }
func (r *recorder) Warning(m string) error { r.msgs = append(r.msgs, "W:"+m); return nil }
func (r *recorder) Err(m string) error     { r.msgs = append(r.msgs, "E:"+m); return nil }
func (r *recorder) Crit(m string) error    { r.msgs = append(r.msgs, "C:"+m); return nil }

func TestLevels(t *testing.T) {
	var out strings.Builder
	l := New(LogLevelWarning, &out)
	rec := new(recorder)
	l.SetUnderlying(rec)

	l.Infof("dropped %d", 1)
	l.Warningf("kept %d", 2)
	l.Errorf("kept %d", 3)
	if out.String() != "kept 2\nkept 3\n" {
		t.Fatalf("Bad stderr output %q", out.String())
	}
	if len(rec.msgs) != 2 || rec.msgs[0] != "W:kept 2" || rec.msgs[1] != "E:kept 3" {
		t.Fatalf("Bad underlying output %v", rec.msgs)
	}

	l.LowerLevelTo(LogLevelDebug)
	l.LowerLevelTo(LogLevelError)
	if l.Level() != LogLevelDebug {
		t.Fatalf("LowerLevelTo raised the level")
	}
	l.Debugf("now visible")
	if !strings.HasSuffix(out.String(), "now visible\n") {
		t.Fatalf("Debug message missing")
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]LogLevel{
		"debug":    LogLevelDebug,
		" Info ":   LogLevelInfo,
		"WARNING":  LogLevelWarning,
		"error":    LogLevelError,
		"critical": LogLevelCritical,
	} {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("Expected error for unknown level")
	}
}
