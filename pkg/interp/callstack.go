// Package interp provides call stack diagnostics for the JDL evaluator.
package interp

import (
	"fmt"
	"strings"

	"github.com/jdl-lang/jdl/pkg/instr"
)

// CallFrame describes one in-flight instruction: the context it runs in
// (function name or program name), the instruction itself, and its 1-based
// position in the enclosing sequence (0 when executed outside a sequence).
type CallFrame struct {
	Context     string
	Instruction *instr.Instruction
	Position    int
}

// String renders the frame as one trace line.
func (f *CallFrame) String() string {
	if f.Position > 0 {
		return fmt.Sprintf("  at %s (line %d): %s", f.Context, f.Position, f.Instruction.Summary())
	}
	return fmt.Sprintf("  at %s: %s", f.Context, f.Instruction.Summary())
}

// CallStack is diagnostic-only bookkeeping of instruction nesting. Frames are
// pushed on instruction entry and popped on every exit path, so the stack
// always reflects the live nesting depth, including at the moment an error
// is raised.
type CallStack struct {
	frames []*CallFrame
}

// NewCallStack creates an empty call stack.
func NewCallStack() *CallStack {
	return &CallStack{frames: make([]*CallFrame, 0, 64)}
}

// Push adds a frame.
func (cs *CallStack) Push(context string, ins *instr.Instruction, position int) {
	cs.frames = append(cs.frames, &CallFrame{
		Context:     context,
		Instruction: ins,
		Position:    position,
	})
}

// Pop removes the top frame. Popping an empty stack is a no-op.
func (cs *CallStack) Pop() {
	if len(cs.frames) > 0 {
		cs.frames = cs.frames[:len(cs.frames)-1]
	}
}

// Depth returns the number of live frames.
func (cs *CallStack) Depth() int {
	return len(cs.frames)
}

// Trace renders all frames top to bottom, one line each.
func (cs *CallStack) Trace() string {
	if len(cs.frames) == 0 {
		return ""
	}
	lines := make([]string, len(cs.frames))
	for i, frame := range cs.frames {
		lines[i] = frame.String()
	}
	return strings.Join(lines, "\n")
}

// Clear resets the stack, for reuse between independent runs.
func (cs *CallStack) Clear() {
	cs.frames = cs.frames[:0]
}
