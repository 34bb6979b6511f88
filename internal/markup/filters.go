package markup

import (
	"strings"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func init() {
	must(pongo2.RegisterFilter("trim", filterTrim))
	must(pongo2.RegisterFilter("tojson", filterToJSON))
	must(pongo2.RegisterFilter("indent", filterIndent))
	must(pongo2.RegisterFilter("capitalize", filterCapitalize))
	must(pongo2.RegisterFilter("d", filterDefault))
	must(pongo2.ReplaceFilter("title", filterTitle))
}

// guardFilters substitute a fallback for an undefined operand, so strict
// rendering does not treat a name used only through them as required.
var guardFilters = map[string]bool{"default": true, "d": true, "default_if_none": true}

func filterTrim(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterToJSON(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue("null"), nil
	}
	return pongo2.AsValue(toJSON(in.Interface())), nil
}

// filterIndent indents every line but the first by param spaces (4 when omitted).
func filterIndent(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	width := 4
	if !param.IsNil() {
		width = param.Integer()
	}
	pad := strings.Repeat(" ", width)
	lines := strings.Split(in.String(), "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return pongo2.AsValue(strings.Join(lines, "\n")), nil
}

// filterCapitalize upper-cases the first letter and lower-cases the rest.
func filterCapitalize(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	s := cases.Lower(language.Und).String(in.String())
	if s == "" {
		return pongo2.AsValue(""), nil
	}
	_, size := utf8.DecodeRuneInString(s)
	return pongo2.AsValue(cases.Upper(language.Und).String(s[:size]) + s[size:]), nil
}

func filterTitle(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(cases.Title(language.Und).String(in.String())), nil
}

func filterDefault(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if !in.IsTrue() {
		return param, nil
	}
	return in, nil
}
