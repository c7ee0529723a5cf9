// Package eval validates and compiles the expressions used to define CPDs
// and utility functions over parent node values.
package eval

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Validate rejects constructs that have no place in a CPD expression.
// Arithmetic and conditionals are allowed (CPDs are numeric functions of
// their parents); function calls, indexing and dot access are not.
func Validate(src string) error {
	src = strings.TrimSpace(src)
	if src == "" {
		return fmt.Errorf("expression must not be empty")
	}

	illegalChars := []rune{'{', '}', '[', ']', ';', '@', '#', '$', '\\', '`'}
	for _, ch := range illegalChars {
		if strings.ContainsRune(src, ch) {
			return fmt.Errorf("illegal character %q", ch)
		}
	}

	if strings.Contains(src, ".") {
		for i := 0; i < len(src); i++ {
			if src[i] != '.' {
				continue
			}
			// a dot inside a float literal is fine, member access is not
			if i > 0 && unicode.IsDigit(rune(src[i-1])) {
				continue
			}
			if i+1 < len(src) && unicode.IsDigit(rune(src[i+1])) {
				continue
			}
			return fmt.Errorf("dot access is not allowed")
		}
	}

	for i := 0; i < len(src)-1; i++ {
		if src[i] == '(' {
			j := i - 1
			for j >= 0 && unicode.IsSpace(rune(src[j])) {
				j--
			}
			if j >= 0 && (unicode.IsLetter(rune(src[j])) || src[j] == '_') {
				k := j
				for k >= 0 && (unicode.IsLetter(rune(src[k])) || unicode.IsDigit(rune(src[k])) || src[k] == '_') {
					k--
				}
				ident := strings.TrimSpace(src[k+1 : j+1])
				if ident != "" {
					return fmt.Errorf("function calls are not allowed (found %q(...))", ident)
				}
			}
		}
	}

	return nil
}

// Program is a compiled CPD expression.
type Program struct {
	src  string
	prog *vm.Program
}

func Compile(src string) (*Program, error) {
	src = strings.TrimSpace(src)
	if err := Validate(src); err != nil {
		return nil, err
	}
	prog, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", src, err)
	}
	return &Program{src: src, prog: prog}, nil
}

func (p *Program) Source() string { return p.src }

// Eval runs the expression against one assignment of parent values.
func (p *Program) Eval(vars map[string]any) (any, error) {
	out, err := expr.Run(p.prog, vars)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", p.src, err)
	}
	return out, nil
}
