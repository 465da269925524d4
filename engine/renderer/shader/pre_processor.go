// Package shader implements the WGSL shader-def pre-processor. A single shader source can hold
// several pipeline variants guarded by #ifdef/#ifndef/#else/#endif blocks; Process keeps the
// lines whose guards are satisfied by the given shader definitions and strips the directives.
package shader

import (
	"fmt"
	"strings"
)

// directive line prefixes
const (
	directiveIfdef  = "#ifdef"
	directiveIfndef = "#ifndef"
	directiveElse   = "#else"
	directiveEndif  = "#endif"
)

// conditionalBlock tracks one open #ifdef/#ifndef block while scanning.
type conditionalBlock struct {
	// line is the 1-based source line that opened the block, for error messages
	line int
	// parentActive is true when every enclosing block is emitting lines
	parentActive bool
	// condition is the evaluated guard of the block
	condition bool
	// inElse is true once the block's #else has been seen
	inElse bool
}

func (b conditionalBlock) active() bool {
	if !b.parentActive {
		return false
	}
	return b.condition != b.inElse
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct{}

// PreProcessor resolves shader-def conditionals in WGSL source.
type PreProcessor interface {
	// Process removes the lines excluded by the given shader definitions along with all
	// conditional directives. Blocks may nest.
	//
	// Parameters:
	//   - source: the raw WGSL source code containing conditional directives
	//   - defs: the shader definitions that are set for this variant
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if a directive is malformed or a block is left unbalanced
	Process(source string, defs ...string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{}
}

func (p *preProcessor) Process(source string, defs ...string) (string, error) {
	set := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		set[d] = struct{}{}
	}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []conditionalBlock

	active := func() bool {
		if len(stack) == 0 {
			return true
		}
		return stack[len(stack)-1].active()
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		fields := strings.Fields(trimmed)
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "#") {
			if active() {
				out = append(out, line)
			}
			continue
		}

		switch fields[0] {
		case directiveIfdef, directiveIfndef:
			if len(fields) != 2 {
				return "", fmt.Errorf("line %d: %s expects exactly one shader def", i+1, fields[0])
			}
			_, defined := set[fields[1]]
			stack = append(stack, conditionalBlock{
				line:         i + 1,
				parentActive: active(),
				condition:    defined == (fields[0] == directiveIfdef),
			})
		case directiveElse:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: #else without #ifdef", i+1)
			}
			top := &stack[len(stack)-1]
			if top.inElse {
				return "", fmt.Errorf("line %d: duplicate #else for block opened on line %d", i+1, top.line)
			}
			top.inElse = true
		case directiveEndif:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: #endif without #ifdef", i+1)
			}
			stack = stack[:len(stack)-1]
		default:
			// not a directive we own, e.g. a WGSL attribute comment
			if active() {
				out = append(out, line)
			}
		}
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: unterminated %s block", stack[len(stack)-1].line, directiveIfdef)
	}
	return strings.Join(out, "\n"), nil
}
