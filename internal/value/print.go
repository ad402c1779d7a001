package value

import (
	"strconv"
	"strings"

	"lispirito/internal/ops"
)

// Print renders vh in reader-compatible form, per LispNode::print, except
// that closures, lambdas and macros print as their #tag rather than their
// full structure.
func (r *Registry) Print(vh *VHandle) string {
	var sb strings.Builder
	r.print(&sb, vh)
	return sb.String()
}

func (r *Registry) print(sb *strings.Builder, vh *VHandle) {
	v := vh.Get()
	if v == nil {
		sb.WriteString("()")
		return
	}

	switch v.Kind {
	case KindSymbol:
		sb.WriteString(v.Sym)
	case KindBoolean:
		if v.Bool {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(v.Sym)
		sb.WriteByte('"')
	case KindChar:
		sb.WriteString("#\\")
		sb.WriteRune(v.Ch)
	case KindOperator:
		if def, ok := ops.ByIndex(v.OpIndex); ok {
			sb.WriteString(def.Name)
		} else {
			sb.WriteString("#unknown-operator")
		}
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindReal:
		sb.WriteString(v.Real.String())
	case KindData:
		sb.WriteString("#data")
	case KindList:
		if tag := specialTag(v); tag != "" {
			sb.WriteString(tag)
			return
		}
		sb.WriteByte('(')
		for bh := v.Head; bh != nil; {
			b := bh.Get()
			if b == nil {
				break
			}
			r.print(sb, b.Item)
			if b.Next != nil {
				sb.WriteByte(' ')
			}
			bh = b.Next
		}
		sb.WriteByte(')')
	}
}

// specialTag reports the short print form of a closure, lambda or macro
// value, identified by the operator index of their list head, or "" if
// v is an ordinary list.
func specialTag(v *Value) string {
	if v.Head == nil {
		return ""
	}
	head := v.Head.Get()
	if head == nil {
		return ""
	}
	item := head.Item.Get()
	if item == nil || item.Kind != KindOperator {
		return ""
	}
	def, ok := ops.ByIndex(item.OpIndex)
	if !ok {
		return ""
	}
	switch def.Name {
	case "closure":
		return "#closure"
	case "lambda":
		return "#lambda"
	case "macro":
		return "#macro"
	default:
		return ""
	}
}
