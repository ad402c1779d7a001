package vm

import (
	"lispirito/internal/ops"
	"lispirito/internal/value"
)

// makeClosure wraps lambdaForm (an unevaluated `(lambda params body…)`
// form) together with the environment captured at creation time, per
// the closure value shape `(closure (lambda params body…) env name)`.
// name starts out as the empty list; define fills it in for self-
// recursive lookups, grounded on eval_lambda/eval_define's procedure_name
// patch-up.
func (vm *VM) makeClosure(lambdaForm, env *value.VHandle) *value.VHandle {
	closureIdx, _ := ops.Lookup("closure")
	tail := vm.Reg.Cons(env.Retain(), vm.Reg.Cons(vm.Reg.Empty.Retain(), vm.Reg.Empty.Retain()))
	tail = vm.Reg.Cons(lambdaForm.Retain(), tail)
	return vm.Reg.Cons(vm.Reg.NewOperator(closureIdx), tail)
}

// validateParams rejects a parameter list containing anything but plain
// symbols (and the `.` rest marker), matching eval_procedure.
func (vm *VM) validateParams(name string, params *value.VHandle) error {
	pv := params.Get()
	if pv == nil || pv.Kind != value.KindList {
		return errType(name, "argument type error")
	}
	for bh := pv.Head; bh != nil; {
		b := bh.Get()
		item := b.Item.Get()
		if item.Kind != value.KindSymbol {
			return errType(name, "argument type error")
		}
		bh = b.Next
	}
	return nil
}

// isOperatorNamed reports whether vh holds an AtomOperator matching name.
func isOperatorNamed(vh *value.VHandle, name string) bool {
	v := vh.Get()
	if v == nil || v.Kind != value.KindOperator {
		return false
	}
	def, ok := ops.ByIndex(v.OpIndex)
	return ok && def.Name == name
}

// procedureShape resolves a head value (closure, macro, or a bare
// lambda form evaluated directly as an operator result) into the
// procedure it applies, the environment to apply it in, and whether
// this is a macro (textual substitution) or a closure/lambda (eager
// evaluation). Named recursive lookups resolve to the bare lambda form
// via the environment rather than a wrapped closure — see
// eval_lambda_application's OP_LAMBDA branch — so that case is handled
// here too.
func (vm *VM) procedureShape(head, callerEnv *value.VHandle) (procedure, env *value.VHandle, isMacro bool, ok bool) {
	hv := head.Get()
	if hv == nil || hv.Kind != value.KindList || hv.Head == nil {
		return nil, nil, false, false
	}
	headItem := hv.Head.Get().Item

	switch {
	case isOperatorNamed(headItem, "closure"):
		procedure = vm.Reg.Car(vm.Reg.Cdr(head))
		env = vm.Reg.Car(vm.Reg.Cdr(vm.Reg.Cdr(head)))
		name := vm.Reg.Car(vm.Reg.Cdr(vm.Reg.Cdr(vm.Reg.Cdr(head))))
		if nv := name.Get(); nv != nil && nv.Kind == value.KindSymbol {
			pair := vm.Reg.Cons(name, vm.Reg.Cons(procedure, vm.Reg.Empty.Retain()))
			env = vm.Reg.Cons(pair, env)
		}
		return procedure, env, false, true
	case isOperatorNamed(headItem, "macro"):
		return head, callerEnv, true, true
	case isOperatorNamed(headItem, "lambda"):
		return head, callerEnv, false, true
	default:
		return nil, nil, false, false
	}
}

// applyProcedure binds call's arguments against head (a closure, macro,
// or bare lambda value) and returns the body's forms plus the
// environment they should run under, for the caller to tail-schedule —
// this is the "Apply" frame from §4.5 collapsed into a direct call
// since the trampoline loop already provides the tail position.
func (vm *VM) applyProcedure(head, argList, callerEnv *value.VHandle) (body, env *value.VHandle, err error) {
	procedure, env, isMacro, ok := vm.procedureShape(head, callerEnv)
	if !ok {
		return nil, nil, errType("apply", "not a procedure")
	}

	params := vm.Reg.Car(vm.Reg.Cdr(procedure))
	body = vm.Reg.Cdr(vm.Reg.Cdr(procedure))
	if err := vm.validateParams("lambda application", params); err != nil {
		return nil, nil, err
	}

	pv := params.Get()
	paramBox := pv.Head
	argBox := argList.Get().Head

	for paramBox != nil || argBox != nil {
		if paramBox == nil || argBox == nil {
			return nil, nil, errArity("lambda application")
		}
		pb := paramBox.Get()
		paramName := pb.Item

		if pn := paramName.Get(); pn.Sym == "." {
			paramBox = pb.Next
			if paramBox == nil {
				return nil, nil, errArity("lambda application")
			}
			restName := paramBox.Get().Item

			var rest *value.VHandle
			if isMacro {
				rest = vm.Reg.NewList(argBox) // unevaluated tail, shared spine
			} else {
				items := make([]*value.VHandle, 0)
				for b := argBox; b != nil; {
					bb := b.Get()
					v, evalErr := vm.Eval(bb.Item, callerEnv)
					if evalErr != nil {
						return nil, nil, evalErr
					}
					items = append(items, v)
					b = bb.Next
				}
				rest = vm.Reg.Empty.Retain()
				for i := len(items) - 1; i >= 0; i-- {
					rest = vm.Reg.Cons(items[i], rest)
				}
			}

			if isMacro {
				body = vm.substBody(restName, rest, body)
			} else {
				pair := vm.Reg.Cons(restName, vm.Reg.Cons(rest, vm.Reg.Empty.Retain()))
				env = vm.Reg.Cons(pair, env)
			}
			paramBox, argBox = nil, nil
			break
		}

		ab := argBox.Get()
		argExpr := ab.Item

		if isMacro {
			body = vm.substBody(paramName, argExpr, body)
		} else {
			argVal, evalErr := vm.Eval(argExpr, callerEnv)
			if evalErr != nil {
				return nil, nil, evalErr
			}
			pair := vm.Reg.Cons(paramName, vm.Reg.Cons(argVal, vm.Reg.Empty.Retain()))
			env = vm.Reg.Cons(pair, env)
		}

		paramBox, argBox = pb.Next, ab.Next
	}

	return body, env, nil
}

// substBody applies Subst across every form of a macro body.
func (vm *VM) substBody(old, repl, body *value.VHandle) *value.VHandle {
	bv := body.Get()
	var items []*value.VHandle
	for bh := bv.Head; bh != nil; {
		b := bh.Get()
		items = append(items, vm.Reg.Subst(old, repl, b.Item))
		bh = b.Next
	}
	result := vm.Reg.Empty.Retain()
	for i := len(items) - 1; i >= 0; i-- {
		result = vm.Reg.Cons(items[i], result)
	}
	return result
}
