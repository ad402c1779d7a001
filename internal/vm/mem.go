package vm

import "lispirito/internal/value"

// The mem-* primitives are the core's FFI-like escape hatch onto
// AtomData's opaque host memory (§4.6). Go has no raw addressable heap
// to expose safely, so "addresses" here are handles into vm.mem, the
// VM's private arena — gated behind Config.MemOpsEnabled the way a
// constrained build would gate direct memory access behind a feature
// toggle.
func (vm *VM) memGated(name string) error {
	if !vm.Config.MemOpsEnabled {
		return errType(name, "low-level memory operators are disabled")
	}
	return nil
}

func (vm *VM) memAlloc(size *value.VHandle) (*value.VHandle, error) {
	if err := vm.memGated("mem-alloc"); err != nil {
		return nil, err
	}
	sv := size.Get()
	if sv == nil || sv.Kind != value.KindInteger || sv.Int < 0 {
		return nil, errType("mem-alloc", "argument type error")
	}
	addr := vm.memNext
	vm.memNext++
	vm.mem[addr] = make([]byte, sv.Int)
	return vm.Reg.NewInteger(addr), nil
}

func (vm *VM) memBuf(name string, addr *value.VHandle) ([]byte, *value.Value, error) {
	av := addr.Get()
	if av == nil || av.Kind != value.KindInteger {
		return nil, nil, errType(name, "argument type error")
	}
	buf, ok := vm.mem[av.Int]
	if !ok {
		return nil, nil, errType(name, "unknown memory address")
	}
	return buf, av, nil
}

func (vm *VM) memRead(addr, index *value.VHandle) (*value.VHandle, error) {
	if err := vm.memGated("mem-read"); err != nil {
		return nil, err
	}
	buf, _, err := vm.memBuf("mem-read", addr)
	if err != nil {
		return nil, err
	}
	iv := index.Get()
	if iv == nil || iv.Kind != value.KindInteger || iv.Int < 0 || int(iv.Int) >= len(buf) {
		return nil, errType("mem-read", "index out of range")
	}
	return vm.Reg.NewInteger(int64(buf[iv.Int])), nil
}

func (vm *VM) memWrite(addr, index, val *value.VHandle) (*value.VHandle, error) {
	if err := vm.memGated("mem-write"); err != nil {
		return nil, err
	}
	buf, _, err := vm.memBuf("mem-write", addr)
	if err != nil {
		return nil, err
	}
	iv, vv := index.Get(), val.Get()
	if iv == nil || iv.Kind != value.KindInteger || iv.Int < 0 || int(iv.Int) >= len(buf) {
		return nil, errType("mem-write", "index out of range")
	}
	if vv == nil || vv.Kind != value.KindInteger {
		return nil, errType("mem-write", "argument type error")
	}
	buf[iv.Int] = byte(vv.Int)
	return addr.Retain(), nil
}

func (vm *VM) memFill(addr, length, val *value.VHandle) (*value.VHandle, error) {
	if err := vm.memGated("mem-fill"); err != nil {
		return nil, err
	}
	buf, _, err := vm.memBuf("mem-fill", addr)
	if err != nil {
		return nil, err
	}
	lv, vv := length.Get(), val.Get()
	if lv == nil || lv.Kind != value.KindInteger || vv == nil || vv.Kind != value.KindInteger {
		return nil, errType("mem-fill", "argument type error")
	}
	n := int(lv.Int)
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		buf[i] = byte(vv.Int)
	}
	return addr.Retain(), nil
}

func (vm *VM) memCopy(dst, src, length *value.VHandle) (*value.VHandle, error) {
	if err := vm.memGated("mem-copy"); err != nil {
		return nil, err
	}
	dbuf, _, err := vm.memBuf("mem-copy", dst)
	if err != nil {
		return nil, err
	}
	sbuf, _, err := vm.memBuf("mem-copy", src)
	if err != nil {
		return nil, err
	}
	lv := length.Get()
	if lv == nil || lv.Kind != value.KindInteger {
		return nil, errType("mem-copy", "argument type error")
	}
	n := int(lv.Int)
	if n > len(dbuf) {
		n = len(dbuf)
	}
	if n > len(sbuf) {
		n = len(sbuf)
	}
	copy(dbuf[:n], sbuf[:n])
	return dst.Retain(), nil
}

func (vm *VM) memAddr(data *value.VHandle) (*value.VHandle, error) {
	if err := vm.memGated("mem-addr"); err != nil {
		return nil, err
	}
	dv := data.Get()
	if dv == nil || dv.Kind != value.KindData {
		return nil, errType("mem-addr", "argument type error")
	}
	addr := vm.memNext
	vm.memNext++
	vm.mem[addr] = dv.Data
	return vm.Reg.NewInteger(addr), nil
}
