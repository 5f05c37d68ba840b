package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

var ErrInvalid = errors.New("invalid shader")

// Validator checks preprocessed WGSL before a shader module is created.
type Validator interface {
	Validate(label, source string) error
}

// NagaValidator parses, lowers and validates WGSL with naga.
type NagaValidator struct{}

func (NagaValidator) Validate(label, source string) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalid, label, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalid, label, err)
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalid, label, err)
	}
	if len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.Error()
		}
		return fmt.Errorf("%w %q: %s", ErrInvalid, label, strings.Join(msgs, "; "))
	}
	return nil
}

// NopValidator accepts every source.
type NopValidator struct{}

func (NopValidator) Validate(string, string) error { return nil }
