// Canonical job states and the translators that produce them from the two export eras.
//
// The legacy slurmdbd dump carries the numeric `state` column of the job table; the sacct export
// carries text, sometimes with a dynamic suffix ("CANCELLED by 1023").  Both come out as one of
// the canonical states or as absent.

package state

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

type State string

const (
	Pending   State = "PENDING"
	Running   State = "RUNNING"
	Suspended State = "SUSPENDED"
	Completed State = "COMPLETED"
	Cancelled State = "CANCELLED"
	Failed    State = "FAILED"
	Timeout   State = "TIMEOUT"
	NodeFail  State = "NODE_FAIL"
	Preempted State = "PREEMPTED"
	BootFail  State = "BOOT_FAIL"
)

// All canonical states in code order.

func All() []State {
	return []State{
		Pending, Running, Suspended, Completed, Cancelled, Failed, Timeout, NodeFail, Preempted,
		BootFail,
	}
}

func (s State) String() string {
	return string(s)
}

type Translator interface {
	Translate(raw string) mo.Option[State]
}

// Map from slurmdbd job_state code to state.

type CodeTable map[int64]State

// The job_states enum of slurm.h, as stored in the job table's `state` column.

func DefaultCodes() CodeTable {
	return CodeTable{
		0: Pending,
		1: Running,
		2: Suspended,
		3: Completed,
		4: Cancelled,
		5: Failed,
		6: Timeout,
		7: NodeFail,
		8: Preempted,
		9: BootFail,
	}
}

type CodeTranslator struct {
	codes CodeTable
}

var _ = Translator((*CodeTranslator)(nil))

// The table is copied, later changes to `codes` do not affect the translator.

func NewCodeTranslator(codes CodeTable) *CodeTranslator {
	c := make(CodeTable, len(codes))
	for k, v := range codes {
		c[k] = v
	}
	return &CodeTranslator{codes: c}
}

// Spreadsheet exports turn 4 into 4.0, so integral floats are accepted too.

func (ct *CodeTranslator) Translate(raw string) mo.Option[State] {
	s := strings.TrimSpace(raw)
	code, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return mo.None[State]()
		}
		code = int64(f)
	}
	if st, found := ct.codes[code]; found {
		return mo.Some(st)
	}
	return mo.None[State]()
}

type TextTranslator struct {
	known map[State]bool
}

var _ = Translator((*TextTranslator)(nil))

const cancelledBy = "CANCELLED by "

func NewTextTranslator(known []State) *TextTranslator {
	m := make(map[State]bool, len(known))
	for _, k := range known {
		m[k] = true
	}
	return &TextTranslator{known: m}
}

// "CANCELLED by <uid>" becomes CANCELLED.  Anything else passes through if it is a known state
// and is absent otherwise; that includes states outside the canonical set such as OUT_OF_MEMORY.

func (tt *TextTranslator) Translate(raw string) mo.Option[State] {
	s := strings.TrimSpace(raw)
	if actor, found := strings.CutPrefix(s, cancelledBy); found {
		if actor == "" || strings.TrimLeft(actor, "0123456789") != "" {
			return mo.None[State]()
		}
		s = string(Cancelled)
	}
	if tt.known[State(s)] {
		return mo.Some(State(s))
	}
	return mo.None[State]()
}

// Parse a state name that is already canonical, as found in our own output.

func Parse(s string) mo.Option[State] {
	st := State(strings.TrimSpace(s))
	for _, k := range All() {
		if k == st {
			return mo.Some(st)
		}
	}
	return mo.None[State]()
}
