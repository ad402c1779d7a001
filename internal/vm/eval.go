package vm

import (
	"lispirito/internal/ops"
	"lispirito/internal/value"
)

// Eval evaluates input under env, trampolining through tail positions
// (a begin's last form, a matched cond's consequent, a closure/macro
// body's last form) instead of recursing the Go stack for them — see
// the package doc for how this maps onto the original's explicit frame
// stack. Everything else (argument evaluation, a cond test, an and/or
// operand) goes through a fresh vm.Eval call and does consume Go stack,
// bounded by vm.Config.EvalStackLimit so deep non-tail recursion fails
// with a StackOverflow value instead of crashing the process.
func (vm *VM) Eval(input, env *value.VHandle) (*value.VHandle, error) {
	vm.depth++
	if vm.depth > vm.Config.EvalStackLimit {
		vm.depth--
		return nil, errStackOverflow()
	}
	defer func() { vm.depth-- }()

	for {
		result, nextInput, nextEnv, tail, err := vm.step(input, env)
		if err != nil {
			return nil, err
		}
		if !tail {
			return result, nil
		}
		input, env = nextInput, nextEnv
	}
}

// step performs one dispatch. When the form's next action is itself a
// tail position, step returns tail=true with the next (input, env) pair
// instead of recursing, which is what lets Eval's loop fold it into the
// same stack frame.
func (vm *VM) step(input, env *value.VHandle) (result, nextInput, nextEnv *value.VHandle, tail bool, err error) {
	v := input.Get()
	if v == nil {
		return vm.Reg.Empty.Retain(), nil, nil, false, nil
	}

	switch v.Kind {
	case value.KindSymbol:
		bound := vm.Reg.AssocReplace(input, env, nil)
		if bound == nil {
			return nil, nil, nil, false, errUnbound(v.Sym)
		}
		return bound, nil, nil, false, nil

	case value.KindList:
		if v.Head == nil {
			return input.Retain(), nil, nil, false, nil
		}
		return vm.stepList(input, v, env)

	default:
		return input.Retain(), nil, nil, false, nil
	}
}

func (vm *VM) stepList(input *value.VHandle, v *value.Value, env *value.VHandle) (result, nextInput, nextEnv *value.VHandle, tail bool, err error) {
	headItem := v.Head.Get().Item
	hv := headItem.Get()

	if hv != nil && hv.Kind == value.KindOperator {
		def, ok := ops.ByIndex(hv.OpIndex)
		if !ok {
			return nil, nil, nil, false, errUnknownOperator("")
		}
		return vm.dispatch(def, input, env)
	}

	// First: the head is not yet a resolved operator/closure/macro.
	// Evaluate it, then treat the result as the procedure being
	// applied (if it resolved to an operator token, that token now
	// drives dispatch the same as if it had been written literally).
	headVal, err := vm.Eval(headItem, env)
	if err != nil {
		return nil, nil, nil, false, err
	}
	if hvv := headVal.Get(); hvv != nil && hvv.Kind == value.KindOperator {
		rebuilt := vm.Reg.Cons(headVal, vm.Reg.Cdr(input))
		def, ok := ops.ByIndex(hvv.OpIndex)
		if !ok {
			return nil, nil, nil, false, errUnknownOperator("")
		}
		return vm.dispatch(def, rebuilt, env)
	}

	body, bodyEnv, err := vm.applyProcedure(headVal, vm.Reg.Cdr(input), env)
	if err != nil {
		return nil, nil, nil, false, err
	}
	next, nextE, err := vm.evalBodySequence(body, bodyEnv)
	if err != nil {
		return nil, nil, nil, false, err
	}
	return nil, next, nextE, true, nil
}

// dispatch handles one operator application once the head has resolved
// to an AtomOperator, per the reduction-mode table in §4.4.
func (vm *VM) dispatch(def ops.Def, input, env *value.VHandle) (result, nextInput, nextEnv *value.VHandle, tail bool, err error) {
	switch def.Mode {
	case ops.SpecialQuote:
		if vm.Reg.Length(input) != 2 {
			return nil, nil, nil, false, errArity("quote")
		}
		return vm.Reg.Car(vm.Reg.Cdr(input)), nil, nil, false, nil

	case ops.SpecialCond:
		ni, ne, err := vm.evalCond(input, env)
		if err != nil {
			return nil, nil, nil, false, err
		}
		return nil, ni, ne, true, nil

	case ops.SpecialLogic:
		r, err := vm.evalLogic(def.Name, input, env)
		return r, nil, nil, false, err

	case ops.SpecialBegin:
		ni, ne, err := vm.evalBegin(input, env)
		if err != nil {
			return nil, nil, nil, false, err
		}
		return nil, ni, ne, true, nil

	case ops.SpecialDefine:
		r, err := vm.evalDefine(def.Name == "set!", input, env)
		return r, nil, nil, false, err

	case ops.SpecialEval:
		if vm.Reg.Length(input) != 3 {
			return nil, nil, nil, false, errArity("eval")
		}
		exprArg := vm.Reg.Car(vm.Reg.Cdr(input))
		envArg := vm.Reg.Car(vm.Reg.Cdr(vm.Reg.Cdr(input)))
		exprVal, err := vm.Eval(exprArg, env)
		if err != nil {
			return nil, nil, nil, false, err
		}
		envVal, err := vm.Eval(envArg, env)
		if err != nil {
			return nil, nil, nil, false, err
		}
		return nil, exprVal, envVal, true, nil

	case ops.SpecialLoad:
		if vm.Reg.Length(input) != 2 {
			return nil, nil, nil, false, errArity("load")
		}
		symArg := vm.Reg.Car(vm.Reg.Cdr(input))
		symVal, err := vm.Eval(symArg, env)
		if err != nil {
			return nil, nil, nil, false, err
		}
		sv := symVal.Get()
		if sv == nil || sv.Kind != value.KindSymbol {
			return nil, nil, nil, false, errType("load", "argument type error")
		}
		defineForm, loadErr := vm.loadLibrary(sv.Sym, env)
		if loadErr != nil {
			return nil, nil, nil, false, loadErr
		}
		r, err := vm.evalDefine(false, defineForm, env)
		return r, nil, nil, false, err

	case ops.ImmediateLambda:
		return vm.makeClosure(input, env), nil, nil, false, nil

	case ops.ImmediateMacro:
		return input.Retain(), nil, nil, false, nil

	case ops.ImmediateClosure:
		return input.Retain(), nil, nil, false, nil

	default:
		return vm.dispatchCall(def, input, env)
	}
}

// dispatchCall handles Normal0..Normal3 and NormalX: evaluate every
// argument left-to-right, then invoke the primitive implementation.
func (vm *VM) dispatchCall(def ops.Def, input, env *value.VHandle) (result, nextInput, nextEnv *value.VHandle, tail bool, err error) {
	if def.Name == "apply" {
		r, err := vm.evalApply(input, env)
		return r, nil, nil, false, err
	}
	if def.Name == "current-environment" {
		if vm.Reg.Length(input) != 1 {
			return nil, nil, nil, false, errArity("current-environment")
		}
		return env.Retain(), nil, nil, false, nil
	}

	forms := vm.Reg.Cdr(input)
	fv := forms.Get()

	vm.argsDepth++
	if vm.argsDepth > vm.Config.DataStackLimit {
		vm.argsDepth--
		return nil, nil, nil, false, errStackOverflow()
	}
	defer func() { vm.argsDepth-- }()

	var args []*value.VHandle
	for bh := fv.Head; bh != nil; {
		b := bh.Get()
		a, err := vm.Eval(b.Item, env)
		if err != nil {
			return nil, nil, nil, false, err
		}
		args = append(args, a)
		bh = b.Next
	}

	if n, ok := ops.FixedArity(def.Mode); ok && len(args) != n {
		return nil, nil, nil, false, errArity(def.Name)
	}

	r, err := vm.callPrimitive(def.Name, args, env)
	return r, nil, nil, false, err
}

// evalApply implements `apply`: every operand is evaluated eagerly, the
// last is spliced as a list of additional arguments, and the result is
// applied to the (already-evaluated) head the same as any other call by
// quote-wrapping each value so applyProcedure's normal argument
// evaluation path returns it unchanged.
func (vm *VM) evalApply(input, env *value.VHandle) (*value.VHandle, error) {
	forms := vm.Reg.Cdr(input)
	n := vm.Reg.Length(forms)
	if n < 2 {
		return nil, errArity("apply")
	}

	fv := forms.Get()
	var evaluated []*value.VHandle
	for bh := fv.Head; bh != nil; {
		b := bh.Get()
		a, err := vm.Eval(b.Item, env)
		if err != nil {
			return nil, err
		}
		evaluated = append(evaluated, a)
		bh = b.Next
	}

	proc := evaluated[0]
	tailList := evaluated[len(evaluated)-1]
	plain := evaluated[1 : len(evaluated)-1]

	tv := tailList.Get()
	if tv == nil || tv.Kind != value.KindList {
		return nil, errType("apply", "argument type error")
	}

	var combined []*value.VHandle
	combined = append(combined, plain...)
	for bh := tv.Head; bh != nil; {
		b := bh.Get()
		combined = append(combined, b.Item)
		bh = b.Next
	}

	argList := vm.Reg.Empty.Retain()
	for i := len(combined) - 1; i >= 0; i-- {
		quoted := vm.Reg.Cons(vm.Reg.NewOperator(quoteOpIndex), vm.Reg.Cons(combined[i], vm.Reg.Empty.Retain()))
		argList = vm.Reg.Cons(quoted, argList)
	}

	body, bodyEnv, err := vm.applyProcedure(proc, argList, env)
	if err != nil {
		return nil, err
	}
	nextInput, nextEnv, err := vm.evalBodySequence(body, bodyEnv)
	if err != nil {
		return nil, err
	}
	return vm.Eval(nextInput, nextEnv)
}
