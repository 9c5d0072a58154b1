package script

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource []byte

// Error codes for LoadError.
const (
	ErrCodeSchema  = "SCRIPT_SCHEMA"  // embedded schema failed to compile
	ErrCodeCompile = "SCRIPT_COMPILE" // script is not valid CUE
	ErrCodeInvalid = "SCRIPT_INVALID" // script does not satisfy #Script
	ErrCodeDecode  = "SCRIPT_DECODE"
)

// LoadError reports a CUE script failure with its source position when one
// is known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		le.Pos = errs[0].Position()
	}
	return le
}

// LoadCUE reads a CUE script. The file's top-level fields are unified with
// the embedded #Script definition, so unknown fields and out-of-range values
// fail with a source position.
func LoadCUE(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return ParseCUE(path, data)
}

// ParseCUE compiles and validates CUE source. filename is used in error
// positions only.
func ParseCUE(filename string, data []byte) (*Script, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, newLoadError(ErrCodeSchema, err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, newLoadError(ErrCodeCompile, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Script")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, newLoadError(ErrCodeInvalid, err)
	}

	var s Script
	if err := unified.Decode(&s); err != nil {
		return nil, newLoadError(ErrCodeDecode, err)
	}
	if err := s.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: err.Error()}
	}
	return &s, nil
}
