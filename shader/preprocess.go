// Package shader specializes WGSL source with shader defs and validates the
// result before it reaches the device.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Def is a shader def. An empty Value defines the name as a flag.
type Def struct {
	Name  string
	Value string
}

func Flag(name string) Def { return Def{Name: name} }

func Uint(name string, v uint32) Def {
	return Def{Name: name, Value: strconv.FormatUint(uint64(v), 10) + "u"}
}

// Key returns a canonical string for a def set, independent of order.
func Key(defs []Def) string {
	parts := make([]string, len(defs))
	for i, d := range defs {
		parts[i] = d.Name + "=" + d.Value
	}
	slices.Sort(parts)
	return strings.Join(parts, ";")
}

type branch struct {
	active       bool
	parentActive bool
	sawElse      bool
	line         int
}

// Preprocess resolves #ifdef, #ifndef, #else, #endif and #define directives
// and substitutes #{NAME} with the def's value.
func Preprocess(source string, defs []Def) (string, error) {
	values := make(map[string]string, len(defs))
	for _, d := range defs {
		values[d.Name] = d.Value
	}

	var (
		out   strings.Builder
		stack []branch
	)
	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	for i, line := range strings.Split(source, "\n") {
		n := i + 1
		trimmed := strings.TrimSpace(line)
		directive, arg, _ := strings.Cut(trimmed, " ")
		arg = strings.TrimSpace(arg)

		switch directive {
		case "#ifdef", "#ifndef":
			if arg == "" {
				return "", fmt.Errorf("line %d: %s without a name", n, directive)
			}
			_, defined := values[arg]
			cond := defined == (directive == "#ifdef")
			parent := active()
			stack = append(stack, branch{active: parent && cond, parentActive: parent, line: n})
			continue
		case "#else":
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: #else without #ifdef", n)
			}
			top := &stack[len(stack)-1]
			if top.sawElse {
				return "", fmt.Errorf("line %d: duplicate #else for block opened on line %d", n, top.line)
			}
			top.sawElse = true
			top.active = top.parentActive && !top.active
			continue
		case "#endif":
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: #endif without #ifdef", n)
			}
			stack = stack[:len(stack)-1]
			continue
		case "#define":
			if !active() {
				continue
			}
			name, value, _ := strings.Cut(arg, " ")
			if name == "" {
				return "", fmt.Errorf("line %d: #define without a name", n)
			}
			values[name] = strings.TrimSpace(value)
			continue
		}

		if !active() {
			continue
		}
		expanded, err := substitute(line, values)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", n, err)
		}
		out.WriteString(expanded)
		out.WriteByte('\n')
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: unterminated #ifdef", stack[len(stack)-1].line)
	}
	return out.String(), nil
}

func substitute(line string, values map[string]string) (string, error) {
	if !strings.Contains(line, "#{") {
		return line, nil
	}
	var b strings.Builder
	rest := line
	for {
		start := strings.Index(rest, "#{")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated #{ in %q", line)
		}
		name := rest[start+2 : start+end]
		v, ok := values[name]
		if !ok {
			return "", fmt.Errorf("undefined shader def %q", name)
		}
		if v == "" {
			return "", fmt.Errorf("shader def %q has no value", name)
		}
		b.WriteString(rest[:start])
		b.WriteString(v)
		rest = rest[start+end+1:]
	}
}
