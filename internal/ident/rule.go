package ident

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule picks the numeric suffix for a non-headword segment.
type Rule interface {
	Suffix(position int, token string, block, dec int) int
}

// DecimalTokens suffixes the listed token labels with the row decimal and
// every other token with the block number.
type DecimalTokens map[string]bool

// NewDecimalTokens returns a DecimalTokens rule for labels.
func NewDecimalTokens(labels ...string) DecimalTokens {
	r := make(DecimalTokens, len(labels))
	for _, l := range labels {
		r[l] = true
	}
	return r
}

// DefaultRule keys only the "E" token by decimal.
var DefaultRule Rule = NewDecimalTokens(DefaultDecimalToken)

func (d DecimalTokens) Suffix(_ int, token string, block, dec int) int {
	if d[token] {
		return dec
	}
	return block
}

// suffixEnv is the environment visible to suffix expressions.
type suffixEnv struct {
	Position int    `expr:"position"`
	Token    string `expr:"token"`
	Block    int    `expr:"block"`
	Dec      int    `expr:"dec"`
}

// ExprRule evaluates an expr-lang expression such as
//
//	token == "E" ? dec : block
//
// with position, token, block and dec in scope. The expression must yield an
// integer.
type ExprRule struct {
	source  string
	program *vm.Program
}

// CompileRule compiles src into an ExprRule. Type errors are reported here
// rather than on first use.
func CompileRule(src string) (*ExprRule, error) {
	program, err := expr.Compile(src, expr.Env(suffixEnv{}), expr.AsInt())
	if err != nil {
		return nil, fmt.Errorf("compile suffix rule: %w", err)
	}
	return &ExprRule{source: src, program: program}, nil
}

// Source returns the expression text.
func (r *ExprRule) Source() string { return r.source }

// Suffix runs the expression. A runtime failure yields the block number so
// identifiers stay well-formed.
func (r *ExprRule) Suffix(position int, token string, block, dec int) int {
	out, err := expr.Run(r.program, suffixEnv{Position: position, Token: token, Block: block, Dec: dec})
	if err != nil {
		return block
	}
	n, ok := out.(int)
	if !ok {
		return block
	}
	return n
}

// NewRule returns the ExprRule for src when src is non-empty, and a
// DecimalTokens rule over decimalTokens otherwise. With neither, it returns
// DefaultRule.
func NewRule(src string, decimalTokens []string) (Rule, error) {
	if src != "" {
		return CompileRule(src)
	}
	if len(decimalTokens) == 0 {
		return DefaultRule, nil
	}
	return NewDecimalTokens(decimalTokens...), nil
}
