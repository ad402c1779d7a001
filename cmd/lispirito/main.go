// Command lispirito is the REPL entry point: the line-oriented read loop
// that is the core's one external collaborator (spec.md §1), built atop
// internal/session.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"lispirito/internal/config"
	"lispirito/internal/heap"
	"lispirito/internal/logger"
	"lispirito/internal/value"
	"lispirito/internal/vm"
	"lispirito/internal/session"
)

func main() {
	constrained := flag.Bool("constrained", false, "run with the Q22.10 fixed-point real profile and print free heap bytes each iteration")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	profile := value.ProfileHosted
	if *constrained || cfg.RealProfile == "fixed" {
		profile = value.ProfileConstrained
	}

	vmCfg := vm.Config{
		EvalStackLimit: cfg.EvalStackLimit,
		DataStackLimit: cfg.DataStackLimit,
		MemOpsEnabled:  cfg.MemOpsEnabled,
	}

	// One *bufio.Reader shared between this loop's balanced-expression
	// collector and the VM's `read` primitive: both read os.Stdin, and a
	// second independent bufio.Reader over the same fd would buffer ahead
	// bytes the other could never see.
	in := bufio.NewReader(os.Stdin)
	sess := session.NewWithReader(profile, vmCfg, os.Stdout, in)

	for _, name := range []string{"map", "foldl", "foldr", "length", "if"} {
		if _, err := sess.Eval(fmt.Sprintf("(load '%s)", name)); err != nil {
			log.Warn("preload failed", "name", name, "err", err)
		}
	}

	repl(sess, in, os.Stdout, log, profile == value.ProfileConstrained)
}

func repl(sess *session.Session, in *bufio.Reader, out io.Writer, log *logger.Logger, constrained bool) {
	for {
		fmt.Fprint(out, "> ")

		source, eof := readBalancedExpression(in)
		if strings.TrimSpace(source) == "" && eof {
			return
		}
		if strings.TrimSpace(source) == "" {
			if eof {
				return
			}
			continue
		}

		result, err := sess.Eval(source)
		if err != nil {
			fmt.Fprintln(out, formatError(err))
			log.Error("eval error", err)
		} else {
			fmt.Fprintln(out, sess.Print(result))
		}

		sweep := sess.Sweep()
		log.Debug("sweep complete", "values_reclaimed", sweep.ValuesReclaimed, "boxes_reclaimed", sweep.BoxesReclaimed)

		if constrained {
			values, boxes := sess.PoolStats()
			freeSlots := values.Free + boxes.Free
			platform := heap.ReadPlatformStats()
			fmt.Fprintf(out, "; free heap slots: %d (go heap alloc: %d bytes, system free: %d bytes)\n",
				freeSlots, platform.GoHeapAllocBytes, platform.SystemFreeBytes)
		}

		if eof {
			return
		}
	}
}

// readBalancedExpression collects lines from in until the running count
// of '(' minus ')' is non-positive, or end-of-stream — the REPL's
// responsibility per spec.md §1, independent of the tokenizer itself.
func readBalancedExpression(in *bufio.Reader) (source string, eof bool) {
	var sb strings.Builder
	depth := 0
	seenOpen := false

	for {
		line, err := in.ReadString('\n')
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
			return sb.String(), true
		}
		if seenOpen && depth <= 0 {
			return sb.String(), false
		}
		if !seenOpen && strings.TrimSpace(line) != "" {
			return sb.String(), false
		}
	}
}

func formatError(err error) string {
	if ve, ok := err.(*vm.Error); ok {
		switch ve.Kind {
		case vm.KindParseError:
			return "Error reading expression"
		case vm.KindUnboundSymbol:
			return fmt.Sprintf("%s: evaluation error", ve.Name)
		default:
			return ve.Error()
		}
	}
	return err.Error()
}
