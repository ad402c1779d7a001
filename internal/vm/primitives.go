package vm

import (
	"fmt"
	"strconv"
	"strings"

	"lispirito/internal/value"
)

// callPrimitive invokes the N-ary primitive named name against
// already-evaluated args, per §4.6's grouping. Every primitive here has
// already had its argument count checked by dispatchCall against the
// operator table's fixed arity.
func (vm *VM) callPrimitive(name string, args []*value.VHandle, env *value.VHandle) (*value.VHandle, error) {
	switch name {
	// --- List primitives ---
	case "car":
		lv := args[0].Get()
		if lv == nil || lv.Kind != value.KindList || lv.Head == nil {
			return nil, errType("car", "argument type error")
		}
		return vm.Reg.Car(args[0]), nil
	case "cdr":
		lv := args[0].Get()
		if lv == nil || lv.Kind != value.KindList {
			return nil, errType("cdr", "argument type error")
		}
		return vm.Reg.Cdr(args[0]), nil
	case "cons":
		return vm.Reg.Cons(args[0], args[1]), nil
	case "atom?":
		av := args[0].Get()
		return vm.Reg.Bool(av == nil || av.Kind != value.KindList).Retain(), nil
	case "eq?":
		return vm.Reg.Bool(vm.Reg.Equal(args[0], args[1])).Retain(), nil
	case "null?":
		av := args[0].Get()
		return vm.Reg.Bool(av != nil && av.Kind == value.KindList && av.Head == nil).Retain(), nil
	case "pair?":
		av := args[0].Get()
		return vm.Reg.Bool(av != nil && av.Kind == value.KindList && av.Head != nil).Retain(), nil
	case "assoc":
		result := vm.Reg.AssocReplace(args[0], args[1], nil)
		if result == nil {
			return vm.Reg.False.Retain(), nil
		}
		return result, nil
	case "subst":
		return vm.Reg.Subst(args[0], args[1], args[2]), nil

	// --- Type predicates ---
	case "char?":
		return vm.boolKind(args[0], value.KindChar), nil
	case "boolean?":
		return vm.boolKind(args[0], value.KindBoolean), nil
	case "string?":
		return vm.boolKind(args[0], value.KindString), nil
	case "number?":
		av := args[0].Get()
		return vm.Reg.Bool(av != nil && av.IsNumeric()).Retain(), nil
	case "integer?":
		return vm.boolKind(args[0], value.KindInteger), nil
	case "real?":
		return vm.boolKind(args[0], value.KindReal), nil
	case "not":
		av := args[0].Get()
		return vm.Reg.Bool(av != nil && av.Kind == value.KindBoolean && !av.Bool).Retain(), nil

	// --- Coercions ---
	case "integer->real":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindInteger {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewRealValue(value.NewReal(vm.Reg.Profile, float64(av.Int))), nil
	case "real->integer":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindReal {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewInteger(av.Real.AsInt()), nil
	case "integer->char":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindInteger {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewChar(rune(av.Int)), nil
	case "char->integer":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindChar {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewInteger(int64(av.Ch)), nil
	case "number->string":
		av := args[0].Get()
		if av == nil || !av.IsNumeric() {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewString(vm.Reg.Print(args[0])), nil
	case "string->number":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindString {
			return nil, errType(name, "argument type error")
		}
		if strings.Contains(av.Sym, ".") {
			f, err := strconv.ParseFloat(av.Sym, 64)
			if err != nil {
				return vm.Reg.False.Retain(), nil
			}
			return vm.Reg.NewRealValue(value.NewReal(vm.Reg.Profile, f)), nil
		}
		n, err := strconv.ParseInt(av.Sym, 10, 64)
		if err != nil {
			return vm.Reg.False.Retain(), nil
		}
		return vm.Reg.NewInteger(n), nil
	case "string->data":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindString {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewData([]byte(av.Sym)), nil
	case "data->string":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindData {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewString(string(av.Data)), nil

	// --- Extra string helpers (beyond the core table, same group) ---
	case "string-length":
		av := args[0].Get()
		if av == nil || av.Kind != value.KindString {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewInteger(int64(len(av.Sym))), nil
	case "string-append":
		a, b := args[0].Get(), args[1].Get()
		if a == nil || b == nil || a.Kind != value.KindString || b.Kind != value.KindString {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewString(a.Sym + b.Sym), nil
	case "string-ref":
		a, i := args[0].Get(), args[1].Get()
		if a == nil || a.Kind != value.KindString || i == nil || i.Kind != value.KindInteger {
			return nil, errType(name, "argument type error")
		}
		if i.Int < 0 || int(i.Int) >= len(a.Sym) {
			return nil, errType(name, "index out of range")
		}
		return vm.Reg.NewChar(rune(a.Sym[i.Int])), nil
	case "string-set!":
		a, i, c := args[0].Get(), args[1].Get(), args[2].Get()
		if a == nil || a.Kind != value.KindString || i == nil || i.Kind != value.KindInteger || c == nil || c.Kind != value.KindChar {
			return nil, errType(name, "argument type error")
		}
		if i.Int < 0 || int(i.Int) >= len(a.Sym) {
			return nil, errType(name, "index out of range")
		}
		b := []byte(a.Sym)
		b[i.Int] = byte(c.Ch)
		a.Sym = string(b)
		return args[0], nil
	case "make-string":
		n, c := args[0].Get(), args[1].Get()
		if n == nil || n.Kind != value.KindInteger || c == nil || c.Kind != value.KindChar {
			return nil, errType(name, "argument type error")
		}
		return vm.Reg.NewString(strings.Repeat(string(rune(c.Ch)), int(n.Int))), nil
	case "substring":
		a, s, e := args[0].Get(), args[1].Get(), args[2].Get()
		if a == nil || a.Kind != value.KindString || s == nil || s.Kind != value.KindInteger || e == nil || e.Kind != value.KindInteger {
			return nil, errType(name, "argument type error")
		}
		if s.Int < 0 || e.Int > int64(len(a.Sym)) || s.Int > e.Int {
			return nil, errType(name, "index out of range")
		}
		return vm.Reg.NewString(a.Sym[s.Int:e.Int]), nil

	// --- Arithmetic ---
	case "+", "-", "*", "/":
		return vm.arith(name, args[0], args[1])

	// --- Comparison ---
	case "<", "=", ">", "<=", ">=":
		return vm.compare(name, args[0], args[1])

	// --- I/O ---
	case "display":
		fmt.Fprint(vm.Stdout, vm.Reg.Print(args[0]))
		return args[0], nil
	case "write":
		fmt.Fprint(vm.Stdout, vm.Reg.Print(args[0]))
		return args[0], nil
	case "newline":
		fmt.Fprintln(vm.Stdout)
		return vm.Reg.Empty.Retain(), nil
	case "read":
		return vm.readExpr()

	// --- Library loading ---
	case "unload":
		sv := args[0].Get()
		if sv == nil || sv.Kind != value.KindSymbol {
			return nil, errType(name, "argument type error")
		}
		vm.unloadLibrary(sv.Sym, env)
		return vm.Reg.Bool(true).Retain(), nil

	// --- Low-level memory ---
	case "mem-alloc":
		return vm.memAlloc(args[0])
	case "mem-read":
		return vm.memRead(args[0], args[1])
	case "mem-write":
		return vm.memWrite(args[0], args[1], args[2])
	case "mem-fill":
		return vm.memFill(args[0], args[1], args[2])
	case "mem-copy":
		return vm.memCopy(args[0], args[1], args[2])
	case "mem-addr":
		return vm.memAddr(args[0])

	default:
		return nil, errUnknownOperator(name)
	}
}

func (vm *VM) boolKind(v *value.VHandle, k value.Kind) *value.VHandle {
	av := v.Get()
	return vm.Reg.Bool(av != nil && av.Kind == k).Retain()
}

// arith implements +, -, *, / with the promotion policy from §4.6 and
// §9: a mixed integer/real pair promotes the integer operand to real,
// runs the op, and the result stays real (the original values are never
// mutated).
func (vm *VM) arith(name string, a, b *value.VHandle) (*value.VHandle, error) {
	av, bv := a.Get(), b.Get()
	if av == nil || bv == nil || !av.IsNumeric() || !bv.IsNumeric() {
		return nil, errType(name, "argument type error")
	}

	if av.Kind == value.KindInteger && bv.Kind == value.KindInteger {
		switch name {
		case "+":
			return vm.Reg.NewInteger(av.Int + bv.Int), nil
		case "-":
			return vm.Reg.NewInteger(av.Int - bv.Int), nil
		case "*":
			return vm.Reg.NewInteger(av.Int * bv.Int), nil
		case "/":
			if bv.Int == 0 {
				return nil, errDivZero(name)
			}
			return vm.Reg.NewInteger(av.Int / bv.Int), nil
		}
	}

	ar := toReal(vm.Reg.Profile, av)
	br := toReal(vm.Reg.Profile, bv)
	switch name {
	case "+":
		return vm.Reg.NewRealValue(ar.Add(br)), nil
	case "-":
		return vm.Reg.NewRealValue(ar.Sub(br)), nil
	case "*":
		return vm.Reg.NewRealValue(ar.Mul(br)), nil
	case "/":
		r, ok := ar.Div(br)
		if !ok {
			return nil, errDivZero(name)
		}
		return vm.Reg.NewRealValue(r), nil
	}
	return nil, errUnknownOperator(name)
}

func (vm *VM) compare(name string, a, b *value.VHandle) (*value.VHandle, error) {
	av, bv := a.Get(), b.Get()
	if av == nil || bv == nil || !av.IsNumeric() || !bv.IsNumeric() {
		return nil, errType(name, "argument type error")
	}

	var cmp int
	if av.Kind == value.KindInteger && bv.Kind == value.KindInteger {
		switch {
		case av.Int < bv.Int:
			cmp = -1
		case av.Int > bv.Int:
			cmp = 1
		}
	} else {
		cmp = toReal(vm.Reg.Profile, av).Cmp(toReal(vm.Reg.Profile, bv))
	}

	var result bool
	switch name {
	case "<":
		result = cmp < 0
	case "=":
		result = cmp == 0
	case ">":
		result = cmp > 0
	case "<=":
		result = cmp <= 0
	case ">=":
		result = cmp >= 0
	}
	return vm.Reg.Bool(result).Retain(), nil
}

func toReal(profile value.Profile, v *value.Value) value.Real {
	if v.Kind == value.KindReal {
		return v.Real
	}
	return value.NewReal(profile, float64(v.Int))
}

// readExpr blocks on vm.Stdin until a balanced expression is collected
// or end-of-stream, per §5's single suspension point.
func (vm *VM) readExpr() (*value.VHandle, error) {
	var sb strings.Builder
	depth := 0
	seenOpen := false

	for {
		line, err := vm.Stdin.ReadString('\n')
		sb.WriteString(line)
		for _, c := range line {
			switch c {
			case '(':
				depth++
				seenOpen = true
			case ')':
				depth--
			}
		}
		if err != nil {
			break
		}
		if seenOpen && depth <= 0 {
			break
		}
		if !seenOpen && strings.TrimSpace(line) != "" {
			break
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return vm.Reg.Empty.Retain(), nil
	}
	v, err := vm.reader.Parse(text)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Msg: "Error reading expression"}
	}
	return v, nil
}
