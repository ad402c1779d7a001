// Package session ties the reader, the VM, the heap and the GC driver
// into one REPL iteration: parse one expression, evaluate it against the
// persistent global environment, print the result, and sweep — the
// sequence §6 describes for the external REPL, minus the line-oriented
// read loop itself (an external collaborator per spec.md §1).
package session

import (
	"bufio"
	"io"

	"lispirito/internal/gc"
	"lispirito/internal/reader"
	"lispirito/internal/value"
	"lispirito/internal/vm"
)

// Session owns the registry, the VM and the environment/IO roots a
// sweep needs, matching §5's list of process-wide singletons.
type Session struct {
	Reg    *value.Registry
	VM     *vm.VM
	Reader *reader.Reader

	Global *value.VHandle
	Input  *value.VHandle
	Output *value.VHandle
}

// New builds a fresh session: a registry on the given real-number
// profile, the three canonical singletons, an empty global environment,
// and a VM wired to stdout/stdin for display/write/read. stdin is
// wrapped in one *bufio.Reader here and handed to the VM as-is; callers
// that also read from the same stream directly (the REPL's balanced-
// expression loop) must reuse this same reader rather than wrapping
// stdin again, or `read` and the outer loop would each buffer ahead
// independently and steal bytes from one another.
func New(profile value.Profile, cfg vm.Config, stdout io.Writer, stdin io.Reader) *Session {
	return NewWithReader(profile, cfg, stdout, bufio.NewReader(stdin))
}

// NewWithReader is New, but takes the shared *bufio.Reader directly so a
// caller that also drives its own read loop over the same stream (e.g.
// cmd/lispirito's REPL) can pass the identical reader instead of having
// one built internally.
func NewWithReader(profile value.Profile, cfg vm.Config, stdout io.Writer, stdin *bufio.Reader) *Session {
	reg := value.NewRegistry(profile)
	global := reg.Empty.Retain()
	return &Session{
		Reg:    reg,
		VM:     vm.NewVM(reg, global, cfg, stdout, stdin),
		Reader: reader.New(reg),
		Global: global,
		Input:  reg.Empty.Retain(),
		Output: reg.Empty.Retain(),
	}
}

// Eval parses and evaluates one expression. On a parse error the global
// environment is untouched. On an evaluation error, vm.Reset clears the
// VM's depth counters but any defines completed before the error remain
// bound, per §7's documented policy; Session.Global reflects that.
func (s *Session) Eval(source string) (result *value.VHandle, err error) {
	parsed, perr := s.Reader.Parse(source)
	if perr != nil {
		return nil, &vm.Error{Kind: vm.KindParseError, Msg: "Error reading expression"}
	}

	s.Input = parsed
	s.VM.ContextEnv = s.Global

	result, err = s.VM.Eval(parsed, s.Global)
	s.Global = s.VM.ContextEnv
	s.VM.Reset()

	if err != nil {
		return nil, err
	}
	s.Output = result
	return result, nil
}

// Print renders v in reader-compatible form.
func (s *Session) Print(v *value.VHandle) string {
	return s.Reg.Print(v)
}

// Sweep runs one mark-and-sweep pass rooted at the three singletons, the
// global environment, and the last input/output values, per §4.7.
func (s *Session) Sweep() gc.Result {
	return gc.Sweep(s.Reg, gc.Roots{
		True:   s.Reg.True,
		False:  s.Reg.False,
		Empty:  s.Reg.Empty,
		Global: s.Global,
		Input:  s.Input,
		Output: s.Output,
	})
}

// PoolStats reports the chunk, live-slot and free-slot counts of each of
// the two pools; the constrained REPL's free-heap line sums the two free
// counts, next to the runtime/gopsutil figures from
// internal/heap.ReadPlatformStats.
func (s *Session) PoolStats() (values, boxes struct {
	Chunks, Live, Free int
}) {
	vs := s.Reg.Values.Stats()
	bs := s.Reg.Boxes.Stats()
	values.Chunks, values.Live, values.Free = vs.Chunks, vs.LiveSlots, vs.FreeSlots
	boxes.Chunks, boxes.Live, boxes.Free = bs.Chunks, bs.LiveSlots, bs.FreeSlots
	return
}
