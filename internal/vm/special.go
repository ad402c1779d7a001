package vm

import "lispirito/internal/value"

// evalCond walks a cond form's clauses, evaluating tests in order.
// Returns the matched clause's consequent as the next tail position, a
// quoted empty list if no clause matches, or an error if a clause is
// malformed. Mirrors eval_cond.
func (vm *VM) evalCond(input, env *value.VHandle) (nextInput, nextEnv *value.VHandle, err error) {
	clauses := vm.Reg.Cdr(input)

	cv := clauses.Get()
	for bh := cv.Head; bh != nil; {
		b := bh.Get()
		clause := b.Item
		cl := clause.Get()
		if cl == nil || cl.Kind != value.KindList || vm.Reg.Length(clause) < 2 {
			return nil, nil, errType("cond", "argument type error")
		}

		test := vm.Reg.Car(clause)
		forms := vm.Reg.Cdr(clause)

		result, err := vm.Eval(test, env)
		if err != nil {
			return nil, nil, err
		}
		if rv := result.Get(); rv != nil && rv.Kind == value.KindBoolean && rv.Bool {
			if vm.Reg.Length(forms) == 1 {
				return vm.Reg.Car(forms), env, nil
			}
			begin := vm.Reg.Cons(vm.Reg.NewOperator(beginOpIndex), forms)
			return begin, env, nil
		}

		bh = b.Next
	}

	// Exhausted: §4.5's Cond frame finishes with the empty list rather
	// than an error. Quote-wrap so the tail-scheduled re-evaluation
	// returns it verbatim instead of trying to apply it as a call.
	quoted := vm.Reg.Cons(vm.Reg.NewOperator(quoteOpIndex), vm.Reg.Cons(vm.Reg.Empty.Retain(), vm.Reg.Empty.Retain()))
	return quoted, env, nil
}

// evalLogic implements and/or, redesigned to be N-ary over the trailing
// forms (rather than the original's hardcoded 2-ary) with the identity
// values §8 requires for the empty case: #t for and, #f for or.
func (vm *VM) evalLogic(name string, input, env *value.VHandle) (*value.VHandle, error) {
	forms := vm.Reg.Cdr(input)
	identity := name == "and"

	fv := forms.Get()
	if fv.Head == nil {
		return vm.Reg.Bool(identity).Retain(), nil
	}

	var last *value.VHandle
	for bh := fv.Head; bh != nil; {
		b := bh.Get()
		result, err := vm.Eval(b.Item, env)
		if err != nil {
			return nil, err
		}
		rv := result.Get()
		if rv == nil || rv.Kind != value.KindBoolean {
			return nil, errType(name, "argument type error")
		}

		if name == "and" && !rv.Bool {
			return result, nil
		}
		if name == "or" && rv.Bool {
			return result, nil
		}
		last = result
		bh = b.Next
	}

	return last, nil
}

// evalBegin sequences a begin body, threading ContextEnv so a nested
// define extends exactly this frame (restored on exit), and tail-
// schedules the last form. Mirrors eval_begin, generalized to allow a
// multi-form body to be shared with closure/macro application.
func (vm *VM) evalBegin(input, env *value.VHandle) (nextInput, nextEnv *value.VHandle, err error) {
	if vm.Reg.Length(input) < 2 {
		return nil, nil, errArity("begin")
	}
	body := vm.Reg.Cdr(input)
	return vm.evalBodySequence(body, env)
}

// evalBodySequence runs every form but the last under env (with
// ContextEnv threaded for defines), discarding their results, and
// returns the last form plus the (possibly define-extended) environment
// as the caller's next tail position.
func (vm *VM) evalBodySequence(body, env *value.VHandle) (nextInput, nextEnv *value.VHandle, err error) {
	bv := body.Get()
	if bv == nil || bv.Head == nil {
		return nil, nil, errArity("begin")
	}

	saved := vm.ContextEnv
	vm.ContextEnv = env
	defer func() { vm.ContextEnv = saved }()

	for bh := bv.Head; bh.Get().Next != nil; {
		b := bh.Get()
		if _, err := vm.Eval(b.Item, vm.ContextEnv); err != nil {
			return nil, nil, err
		}
		bh = b.Next
	}

	last := body.Get()
	for bh := last.Head; bh.Get().Next != nil; bh = bh.Get().Next {
	}
	var lastItem *value.VHandle
	for bh := last.Head; bh != nil; bh = bh.Get().Next {
		lastItem = bh.Get().Item
	}

	return lastItem, vm.ContextEnv, nil
}

// evalDefine implements define/set!. define evaluates the value first and
// then extends ContextEnv with (symbol, value) via cons; the symbol is not
// bound while its own value expression runs. set! mutates an existing
// pair in place via AssocReplace. A closure bound by define has its self-recursion name
// slot patched in, per eval_define.
func (vm *VM) evalDefine(isSet bool, input, env *value.VHandle) (*value.VHandle, error) {
	if vm.Reg.Length(input) != 3 {
		return nil, errArity("define/set!")
	}
	target := vm.Reg.Car(vm.Reg.Cdr(input))
	valueExpr := vm.Reg.Car(vm.Reg.Cdr(vm.Reg.Cdr(input)))

	directFunctionDefine := target.Get().Kind == value.KindList

	var symbol *value.VHandle
	var bound *value.VHandle
	var err error

	if directFunctionDefine {
		symbol = vm.Reg.Car(target)
		lambdaIdx, _ := lookupLambdaOperator()
		params := vm.Reg.Cdr(target)
		lambdaForm := vm.Reg.Cons(vm.Reg.NewOperator(lambdaIdx), vm.Reg.Cons(params, vm.Reg.Cons(valueExpr, vm.Reg.Empty.Retain())))
		bound = vm.makeClosure(lambdaForm, env)
	} else {
		if tv := target.Get(); tv != nil && tv.Kind == value.KindSymbol {
			symbol = target
		} else {
			symbol, err = vm.Eval(target, env)
			if err != nil {
				return nil, err
			}
		}
		bound, err = vm.Eval(valueExpr, env)
		if err != nil {
			return nil, err
		}
	}

	if sv := symbol.Get(); sv == nil || sv.Kind != value.KindSymbol {
		return nil, errType("define/set!", "argument type error")
	}

	if isSet {
		if found := vm.Reg.AssocReplace(symbol, *vm.contextEnvSlot(), bound); found == nil {
			return nil, errUnbound(symbol.Get().Sym)
		}
	} else {
		pair := vm.Reg.Cons(symbol, vm.Reg.Cons(bound, vm.Reg.Empty.Retain()))
		*vm.contextEnvSlot() = vm.Reg.Cons(pair, *vm.contextEnvSlot())
	}

	if bv := bound.Get(); bv != nil && bv.Kind == value.KindList && bv.Head != nil {
		if isOperatorNamed(bv.Head.Get().Item, "closure") {
			nameBox := bv.Head.Get().Next.Get().Next.Get().Next
			nameBox.Get().Item = symbol
		}
	}

	return *vm.contextEnvSlot(), nil
}

// contextEnvSlot exposes ContextEnv as an addressable cell the way the
// original's process-wide context_environment pointer works.
func (vm *VM) contextEnvSlot() **value.VHandle {
	return &vm.ContextEnv
}

func lookupLambdaOperator() (int, bool) {
	return lambdaOpIndex, lambdaOpIndex >= 0
}
