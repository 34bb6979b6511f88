package markup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/flosch/pongo2/v6"
)

// stateKey carries the execState of one execution through the pongo2 context
// to the include tags.
const stateKey = "__promptdown"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// execState is one execution of one template. The first failure is kept so the
// typed error reaches the caller instead of pongo2's wrapper.
type execState struct {
	scope Scope
	err   error
}

func (s *execState) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	return err
}

// context builds the pongo2 context: the scope's variables with numbers and
// collections normalized, plus an undefined marker for every name the body
// requires but the scope lacks when the policy is strict.
func (s *execState) context(a *Analysis) pongo2.Context {
	ctx := pongo2.Context{stateKey: s}
	for name, v := range s.scope.Variables {
		if identifier.MatchString(name) {
			ctx[name] = normalize(v)
		}
	}
	if !s.scope.Policy.Strict {
		return ctx
	}
	for _, name := range a.required {
		if _, ok := ctx[name]; !ok {
			ctx[name] = s.undefined(name)
		}
	}
	return ctx
}

// undefined is called by pongo2 when name is resolved. Names that are never
// reached (a short-circuited operand, an untaken branch) never fail.
func (s *execState) undefined(name string) func() (any, error) {
	return func() (any, error) {
		return nil, s.fail(&domain.MissingVariableError{Name: name, Document: s.scope.Name})
	}
}

func (s *execState) include(target domain.Target) (string, error) {
	if s.scope.Include == nil {
		return "", s.fail(fmt.Errorf("%s: includes are not available here", s.scope.Name))
	}
	text, err := s.scope.Include(target)
	if err != nil {
		return "", s.fail(err)
	}
	return text, nil
}

// number is a non-integral float; it prints without trailing zeros.
type number float64

func (n number) String() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }

// list and mapping print as JSON.
type list []any

func (l list) String() string { return toJSON(l) }

type mapping map[string]any

func (m mapping) String() string { return toJSON(m) }

// normalize copies v into the shapes pongo2 handles well: whole floats become
// ints, slices become list and string keyed maps become mapping.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case string, bool, int, int64:
		return v
	case []byte:
		return string(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(list, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(mapping, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}

func fromFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return number(f)
}

func toJSON(v any) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return string(bytes.TrimSuffix(b.Bytes(), []byte("\n")))
}
