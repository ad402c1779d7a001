// Package library holds the string-encoded initial lambdas and macros
// that SpecialLoad pulls from by name, grounded on lambdas.h/macros.h
// from original_source/. Unlike the C string-array tables there, these
// are translated to this evaluator's standard (non-doubly-nested) cond
// clause shape, which is what spec.md's own worked examples (§8) use.
package library

// Lambdas are plain `(define name (lambda ...))` forms.
var Lambdas = map[string]string{
	"map": `(define map (lambda (func list)
	  (cond ((eq? list '()) '())
	        (#t (cons (func (car list)) (map func (cdr list)))))))`,

	"foldl": `(define foldl (lambda (binfunc acc list)
	  (cond ((eq? list '()) acc)
	        (#t (foldl binfunc (binfunc (car list) acc) (cdr list))))))`,

	"foldr": `(define foldr (lambda (binfunc acc list)
	  (cond ((eq? list '()) acc)
	        (#t (binfunc (car list) (foldr binfunc acc (cdr list)))))))`,

	"filter": `(define filter (lambda (pred list)
	  (cond ((eq? list '()) '())
	        ((pred (car list)) (cons (car list) (filter pred (cdr list))))
	        (#t (filter pred (cdr list))))))`,

	"length": `(define length (lambda (list)
	  (cond ((eq? list '()) 0)
	        (#t (+ 1 (length (cdr list)))))))`,

	"reverse": `(define reverse (lambda (list)
	  (foldl (lambda (item acc) (cons item acc)) '() list)))`,

	"append": `(define append (lambda (a b)
	  (foldr (lambda (item acc) (cons item acc)) b a)))`,
}

// Macros are plain `(define name (macro ...))` forms, expanding by
// textual substitution at application time (no environment capture).
var Macros = map[string]string{
	"if": `(define if (macro (test consequent alternative)
	  (cond (test consequent) (#t alternative))))`,
}

// Lookup returns the source text bound to name across both tables, the
// way the original's load operator searches a single combined name list.
func Lookup(name string) (string, bool) {
	if src, ok := Lambdas[name]; ok {
		return src, true
	}
	if src, ok := Macros[name]; ok {
		return src, true
	}
	return "", false
}

// Names lists every bundled definition, in no particular order.
func Names() []string {
	names := make([]string, 0, len(Lambdas)+len(Macros))
	for n := range Lambdas {
		names = append(names, n)
	}
	for n := range Macros {
		names = append(names, n)
	}
	return names
}
