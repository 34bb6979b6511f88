package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/promptdown/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ParseAssignments parses repeated --var flags of the form key=value.
// A value starting with "@" is replaced by the content of that file.
// Dotted keys (user.name=Ada) build nested mappings.
func ParseAssignments(pairs []string, readFile func(string) ([]byte, error)) (domain.Variables, error) {
	if readFile == nil {
		readFile = os.ReadFile
	}

	vars := domain.Variables{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", pair)
		}

		var v any = value
		if rest, isFile := strings.CutPrefix(value, "@"); isFile {
			data, err := readFile(rest)
			if err != nil {
				return nil, fmt.Errorf("--var %s: %w", key, err)
			}
			v = string(data)
		}

		if err := setPath(vars, key, v); err != nil {
			return nil, fmt.Errorf("invalid --var %q: %w", pair, err)
		}
	}
	return vars, nil
}

// LoadVarsFile reads a mapping of variables from a JSON or YAML file.
func LoadVarsFile(path string, asJSON bool) (domain.Variables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}

	var vars map[string]any
	if asJSON {
		err = json.Unmarshal(data, &vars)
	} else {
		err = yaml.Unmarshal(data, &vars)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse variables in %s: %w", path, err)
	}
	return vars, nil
}

// MergeVars layers variable mappings; later layers win. Nested mappings are
// merged key by key. The inputs are not modified.
func MergeVars(layers ...map[string]any) domain.Variables {
	out := domain.Variables{}
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		sub, isMap := v.(map[string]any)
		if !isMap {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			existing = map[string]any{}
		} else {
			existing = copyMap(existing)
		}
		mergeInto(existing, sub)
		dst[k] = existing
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func setPath(vars map[string]any, key string, value any) error {
	parts := strings.Split(key, ".")
	m := vars
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("empty key segment")
		}
		if i == len(parts)-1 {
			m[part] = value
			return nil
		}
		next, ok := m[part].(map[string]any)
		if !ok {
			if _, taken := m[part]; taken {
				return fmt.Errorf("%s is already set to a value", strings.Join(parts[:i+1], "."))
			}
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	return nil
}
