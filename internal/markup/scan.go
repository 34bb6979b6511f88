package markup

import (
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/promptdown/pkg/domain"
)

// Analysis is the static view of one body: the variables it references and the
// include targets it names literally, in document order.
type Analysis struct {
	Placeholders domain.PlaceholderSet
	Includes     []domain.Target

	// required are the placeholders referenced at least once outside of a
	// guard filter. Strict rendering fails when one of them is reached undefined.
	required []string
}

// scan walks the tags and outputs of body without evaluating them. Every branch
// of every conditional and the bodies of loops are visited, so a variable is
// reported whenever it may be needed. Loop variables, "loop" and names bound by
// set and with are not reported where they are bound. Includes with a computed
// path contribute the variables of the path expression. Comments, comment
// blocks and verbatim blocks are skipped. body must already parse.
func scan(body string) *Analysis {
	s := &scanner{
		a:        &Analysis{Placeholders: domain.NewPlaceholderSet()},
		frames:   []frame{{}},
		seen:     make(map[domain.Target]bool),
		required: make(map[string]bool),
	}
	s.walk(body)

	s.a.required = make([]string, 0, len(s.required))
	for name := range s.required {
		s.a.required = append(s.a.required, name)
	}
	sort.Strings(s.a.required)
	return s.a
}

const (
	verbatimOpen  = "{% verbatim %}"
	verbatimClose = "{% endverbatim %}"
)

var endComment = regexp.MustCompile(`\{%-?\s*endcomment\s*-?%\}`)

// implicit names resolve without the caller supplying them.
var implicit = map[string]bool{"loop": true, "forloop": true, "pongo2": true, stateKey: true}

var keywords = map[string]bool{
	"in": true, "and": true, "or": true, "not": true,
	"true": true, "false": true, "as": true, "export": true,
}

// blockTags open a frame closed by end<tag>.
var blockTags = map[string]bool{
	"if": true, "for": true, "with": true, "filter": true,
	"spaceless": true, "ifequal": true, "ifnotequal": true,
}

type frame struct {
	tag   string
	bound map[string]bool
}

type scanner struct {
	a        *Analysis
	frames   []frame
	seen     map[domain.Target]bool
	required map[string]bool
}

func (s *scanner) walk(body string) {
	for pos := 0; pos < len(body); {
		i := strings.IndexByte(body[pos:], '{')
		if i < 0 {
			return
		}
		pos += i
		rest := body[pos:]

		switch {
		case strings.HasPrefix(rest, verbatimOpen):
			end := strings.Index(rest, verbatimClose)
			if end < 0 {
				return
			}
			pos += end + len(verbatimClose)
		case strings.HasPrefix(rest, "{#"):
			end := strings.Index(rest, "#}")
			if end < 0 {
				return
			}
			pos += end + 2
		case strings.HasPrefix(rest, "{{"):
			toks, n := lexCode(rest[2:], "}}")
			pos += 2 + n
			s.names(toks)
		case strings.HasPrefix(rest, "{%"):
			toks, n := lexCode(rest[2:], "%}")
			pos += 2 + n
			if len(toks) > 0 && toks[0].val == "-" {
				toks = toks[1:]
			}
			if len(toks) > 0 && toks[0].val == "comment" {
				loc := endComment.FindStringIndex(body[pos:])
				if loc == nil {
					return
				}
				pos += loc[1]
				continue
			}
			s.tag(toks)
		default:
			pos++
		}
	}
}

func (s *scanner) tag(toks []token) {
	if len(toks) == 0 {
		return
	}
	name, args := toks[0].val, toks[1:]

	switch name {
	case "for":
		in := indexOf(args, "in")
		if in < 0 {
			return
		}
		seq := args[in+1:]
		if n := len(seq); n > 1 && seq[n-1].kind == tokIdent && seq[n-1].val == "reversed" {
			seq = seq[:n-1]
		}
		s.names(seq)
		bound := make(map[string]bool)
		for _, t := range args[:in] {
			if t.kind == tokIdent {
				bound[t.val] = true
			}
		}
		s.push(name, bound)
	case "with":
		s.names(args)
		bound := make(map[string]bool)
		if as := indexOf(args, "as"); as >= 0 && as+1 < len(args) {
			bound[args[as+1].val] = true
		}
		for i := 0; i+1 < len(args); i++ {
			if args[i].kind == tokIdent && args[i+1].is("=") {
				bound[args[i].val] = true
			}
		}
		s.push(name, bound)
	case "set":
		if len(args) < 2 {
			return
		}
		s.names(args[2:])
		s.bind(args[0].val)
	case "filter":
		// Arguments are filter names.
		s.push(name, nil)
	case "else", "empty":
		// The empty branch of a loop runs outside of it.
		if top := &s.frames[len(s.frames)-1]; top.tag == "for" {
			top.bound = nil
		}
	case "include":
		if len(args) == 1 && args[0].kind == tokString {
			s.include(domain.Target{Path: args[0].val})
			return
		}
		s.names(args)
	case "include_section":
		if len(args) == 3 && args[0].kind == tokString && args[1].is(",") && args[2].kind == tokString {
			s.include(domain.Target{Path: args[0].val, Section: args[2].val})
			return
		}
		s.names(args)
	default:
		if strings.HasPrefix(name, "end") && blockTags[strings.TrimPrefix(name, "end")] {
			if len(s.frames) > 1 {
				s.frames = s.frames[:len(s.frames)-1]
			}
			return
		}
		s.names(args)
		if blockTags[name] {
			s.push(name, nil)
		}
	}
}

// names records the variables an expression reads. Attribute names, filter
// names and the targets of with bindings are not variables.
func (s *scanner) names(toks []token) {
	for i, t := range toks {
		if t.kind != tokIdent || keywords[t.val] {
			continue
		}
		if i > 0 && (toks[i-1].is(".") || toks[i-1].is("|")) {
			continue
		}
		if i+1 < len(toks) && toks[i+1].is("=") {
			continue
		}
		if i > 0 && toks[i-1].kind == tokIdent && toks[i-1].val == "as" {
			continue
		}
		s.ref(t.val, guarded(toks, i))
	}
}

func (s *scanner) ref(name string, guarded bool) {
	if implicit[name] || s.isBound(name) {
		return
	}
	s.a.Placeholders.Add(name)
	if !guarded {
		s.required[name] = true
	}
}

func (s *scanner) include(target domain.Target) {
	if s.seen[target] {
		return
	}
	s.seen[target] = true
	s.a.Includes = append(s.a.Includes, target)
}

func (s *scanner) push(tag string, bound map[string]bool) {
	s.frames = append(s.frames, frame{tag: tag, bound: bound})
}

// bind records a set. The value lives in the innermost loop or with block,
// since conditionals share their parent's context.
func (s *scanner) bind(name string) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := &s.frames[i]
		if f.tag == "" || f.tag == "for" || f.tag == "with" {
			if f.bound == nil {
				f.bound = make(map[string]bool)
			}
			f.bound[name] = true
			return
		}
	}
}

func (s *scanner) isBound(name string) bool {
	for _, f := range s.frames {
		if f.bound[name] {
			return true
		}
	}
	return false
}

// guarded reports whether the variable at toks[i], with its attribute and
// subscript chain, is piped straight into a guard filter.
func guarded(toks []token, i int) bool {
	j := i + 1
	for j < len(toks) {
		switch {
		case toks[j].is("."):
			j += 2
		case toks[j].is("["):
			depth := 0
			for ; j < len(toks); j++ {
				if toks[j].is("[") {
					depth++
				} else if toks[j].is("]") {
					if depth--; depth == 0 {
						break
					}
				}
			}
			j++
		default:
			return j+1 < len(toks) && toks[j].is("|") && toks[j+1].kind == tokIdent && guardFilters[toks[j+1].val]
		}
	}
	return false
}

func indexOf(toks []token, keyword string) int {
	for i, t := range toks {
		if t.kind == tokIdent && t.val == keyword {
			return i
		}
	}
	return -1
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokSymbol
)

type token struct {
	kind tokenKind
	val  string
}

func (t token) is(symbol string) bool { return t.kind == tokSymbol && t.val == symbol }

var twoCharSymbols = []string{"==", "!=", ">=", "<=", "&&", "||", "<>"}

// lexCode splits the code of one tag or output up to closer. It returns the
// tokens and the number of bytes consumed, closer included. Keywords come back
// as identifiers and string tokens carry their unquoted value.
func lexCode(src, closer string) ([]token, int) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case strings.HasPrefix(src[i:], "-"+closer):
			return toks, i + 1 + len(closer)
		case strings.HasPrefix(src[i:], closer):
			return toks, i + len(closer)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			var b strings.Builder
			j := i + 1
			for ; j < len(src) && src[j] != c; j++ {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				b.WriteByte(src[j])
			}
			toks = append(toks, token{kind: tokString, val: b.String()})
			i = j + 1
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && (isIdentStart(src[j]) || isDigit(src[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, val: src[i:j]})
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokNumber, val: src[i:j]})
			i = j
		default:
			sym := src[i : i+1]
			for _, two := range twoCharSymbols {
				if strings.HasPrefix(src[i:], two) {
					sym = two
					break
				}
			}
			toks = append(toks, token{kind: tokSymbol, val: sym})
			i += len(sym)
		}
	}
	return toks, len(src)
}

func isIdentStart(c byte) bool { return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
