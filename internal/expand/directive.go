package expand

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the resolution path a directive takes.
type Kind int

const (
	KindFile Kind = iota
	KindInclude
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindInclude:
		return "include"
	case KindCommand:
		return "command"
	default:
		return "file"
	}
}

const (
	includeKeyword = "include"
	commandKeyword = "tree"

	shellOperators = ";&|<>()"
)

// Directive is a {{ ... }} placeholder found in prose. Start and End are
// byte offsets of the whole placeholder within the scanned text.
type Directive struct {
	Expr  string
	Kind  Kind
	Start int
	End   int
}

// Arg returns the expression with the leading keyword removed for include
// directives. Other kinds return Expr unchanged.
func (d Directive) Arg() string {
	if d.Kind != KindInclude {
		return d.Expr
	}
	return strings.TrimSpace(strings.TrimPrefix(d.Expr, includeKeyword))
}

var directiveRe = regexp.MustCompile(`(?s)\{\{\s*(.*?)\s*\}\}`)

// ParseDirectives returns every directive in prose, left to right. Stray or
// unbalanced braces are not directives and produce nothing. Empty
// placeholders such as "{{ }}" are skipped and stay literal.
func ParseDirectives(prose string) []Directive {
	var out []Directive
	for _, m := range directiveRe.FindAllStringSubmatchIndex(prose, -1) {
		expr := strings.TrimSpace(prose[m[2]:m[3]])
		if expr == "" {
			continue
		}
		out = append(out, Directive{
			Expr:  expr,
			Kind:  Classify(expr),
			Start: m[0],
			End:   m[1],
		})
	}
	return out
}

// Classify infers a directive kind from the start of expr. A command is
// recognized even when a shell operator touches the keyword, as in "tree;ls",
// so that chaining is always caught by the command checks.
func Classify(expr string) Kind {
	expr = strings.TrimSpace(expr)
	switch {
	case firstWord(expr) == includeKeyword:
		return KindInclude
	case hasCommandKeyword(expr):
		return KindCommand
	default:
		return KindFile
	}
}

func hasCommandKeyword(expr string) bool {
	rest, ok := strings.CutPrefix(expr, commandKeyword)
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r) || strings.ContainsRune(shellOperators, r)
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}
