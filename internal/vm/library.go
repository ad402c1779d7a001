package vm

import (
	"lispirito/internal/library"
	"lispirito/internal/value"
)

// loadLibrary resolves name against the bundled lambda/macro source
// table and parses it into the `(define name ...)` form evalDefine
// expects, per SpecialLoad's description in §4.4.
func (vm *VM) loadLibrary(name string, env *value.VHandle) (*value.VHandle, error) {
	src, ok := library.Lookup(name)
	if !ok {
		return nil, errUnbound(name)
	}
	form, err := vm.reader.Parse(src)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Msg: "Error reading expression"}
	}
	return form, nil
}

// unloadLibrary removes name's binding from the enclosing frame by
// rebuilding the association list without its pair, mirroring the
// removal `unload` performs against the same environment `define`
// extends. Only the first (innermost) matching pair is dropped.
func (vm *VM) unloadLibrary(name string, env *value.VHandle) {
	sym := vm.Reg.NewSymbol(name)
	filtered := vm.removeBinding(sym, env)
	if env == vm.ContextEnv {
		vm.ContextEnv = filtered
		return
	}
	*vm.contextEnvSlot() = filtered
}

// removeBinding returns a copy of env's spine with the first pair whose
// key equals sym dropped.
func (vm *VM) removeBinding(sym, env *value.VHandle) *value.VHandle {
	ev := env.Get()
	if ev == nil || ev.Head == nil {
		return env.Retain()
	}

	var items []*value.VHandle
	dropped := false
	for bh := ev.Head; bh != nil; {
		b := bh.Get()
		pair := b.Item
		if !dropped {
			pv := pair.Get()
			if pv != nil && pv.Kind == value.KindList && pv.Head != nil {
				key := pv.Head.Get().Item
				if vm.Reg.Equal(sym, key) {
					dropped = true
					bh = b.Next
					continue
				}
			}
		}
		items = append(items, pair)
		bh = b.Next
	}

	result := vm.Reg.Empty.Retain()
	for i := len(items) - 1; i >= 0; i-- {
		result = vm.Reg.Cons(items[i], result)
	}
	return result
}
