// Package interp implements the JDL evaluator: a tree-walking dispatcher
// over tagged instructions with support for:
// - Hierarchical scope chains with copy-on-read bindings
// - User-defined functions with call-time parent scoping
// - Return/Break/Continue signal propagation via tagged results
// - Diagnostic call-stack traces on failure
package interp

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jdl-lang/jdl/pkg/instr"
	"github.com/jdl-lang/jdl/pkg/logger"
)

// Interp evaluates instructions against a scope and a shared call stack.
// Compound bodies run through the same Interp; function calls fork a child
// Interp that shares the call stack and I/O streams but carries the callee's
// scope and context name.
type Interp struct {
	scope   *Scope
	stack   *CallStack
	context string

	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer
	exit   func(int)

	log *slog.Logger
}

// Option is a functional option for configuring the evaluator.
type Option func(*Interp)

// WithContext sets the context name reported in stack traces for top-level
// instructions, typically the program file name.
func WithContext(name string) Option {
	return func(ip *Interp) {
		ip.context = name
	}
}

// WithStdin sets the input stream read by the input instruction.
func WithStdin(r io.Reader) Option {
	return func(ip *Interp) {
		ip.stdin = bufio.NewReader(r)
	}
}

// WithStdout sets the output stream written by the print instruction.
func WithStdout(w io.Writer) Option {
	return func(ip *Interp) {
		ip.stdout = w
	}
}

// WithStderr sets the stream failure reports are written to.
func WithStderr(w io.Writer) Option {
	return func(ip *Interp) {
		ip.stderr = w
	}
}

// WithExit sets the function invoked by the exit instruction. The default is
// os.Exit; tests inject a stub.
func WithExit(fn func(int)) Option {
	return func(ip *Interp) {
		ip.exit = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(ip *Interp) {
		ip.log = log
	}
}

// New creates an evaluator with a fresh root scope and empty call stack.
func New(opts ...Option) *Interp {
	ip := &Interp{
		scope:   NewScope(nil),
		stack:   NewCallStack(),
		context: "<main>",
		stdin:   bufio.NewReader(os.Stdin),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		exit:    os.Exit,
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

// Scope returns the evaluator's current scope.
func (ip *Interp) Scope() *Scope {
	return ip.scope
}

// Stack returns the shared call stack.
func (ip *Interp) Stack() *CallStack {
	return ip.stack
}

// fork creates an evaluator for a function body: a new scope and context
// name sharing this evaluator's call stack, streams, and logger.
func (ip *Interp) fork(scope *Scope, context string) *Interp {
	clone := *ip
	clone.scope = scope
	clone.context = context
	return &clone
}

// resolve turns an operand into a value: a sigil-prefixed name reads the
// scope chain, a nested instruction is executed, sequences and mappings
// resolve element-wise, anything else is a literal. A signal raised while
// executing a nested instruction propagates through the Result.
func (ip *Interp) resolve(operand any) (Result, error) {
	switch v := operand.(type) {
	case string:
		if name, ok := instr.VarName(v); ok {
			val, err := ip.scope.Get(name)
			if err != nil {
				return Result{}, err
			}
			return value(val), nil
		}
		return value(v), nil
	case *instr.Instruction:
		return ip.exec(v, 0)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			res, err := ip.resolve(e)
			if err != nil || res.Signal != SignalNone {
				return res, err
			}
			out[i] = res.Value
		}
		return value(out), nil
	case map[any]any:
		out := make(map[any]any, len(v))
		for k, e := range v {
			res, err := ip.resolve(e)
			if err != nil || res.Signal != SignalNone {
				return res, err
			}
			out[k] = res.Value
		}
		return value(out), nil
	default:
		return value(v), nil
	}
}

// Execute evaluates a single instruction.
func (ip *Interp) Execute(ins *instr.Instruction) (Result, error) {
	return ip.exec(ins, 0)
}

// exec evaluates one instruction: push a call frame, dispatch on the
// instruction's resolved op, and pop the frame on every exit path. When an
// error first unwinds out of an instruction, the live stack (including the
// failing frame) is captured into it.
func (ip *Interp) exec(ins *instr.Instruction, position int) (res Result, err error) {
	ip.log.Debug("executing", "tag", ins.Tag, "context", ip.context)

	ip.stack.Push(ip.context, ins, position)
	defer func() {
		if re, ok := err.(*RuntimeError); ok && re.Trace == "" {
			re.Trace = ip.stack.Trace()
		}
		ip.stack.Pop()
	}()

	switch ins.Op {
	case instr.OpVar:
		return ip.executeVar(ins)
	case instr.OpInt, instr.OpStr, instr.OpFloat, instr.OpBool:
		return ip.executeConvert(ins)
	case instr.OpFunc:
		return ip.executeFunc(ins)
	case instr.OpReturn:
		return ip.executeReturn(ins)
	case instr.OpBreak:
		return Result{Signal: SignalBreak}, nil
	case instr.OpContinue:
		return Result{Signal: SignalContinue}, nil
	case instr.OpExport:
		return ip.executeExport(ins)
	case instr.OpIf:
		return ip.executeIf(ins)
	case instr.OpWhile:
		return ip.executeWhile(ins)
	case instr.OpFor:
		return ip.executeFor(ins)
	case instr.OpGet:
		return ip.executeGet(ins)
	case instr.OpPrint:
		return ip.executePrint(ins)
	case instr.OpInput:
		return ip.executeInput(ins)
	case instr.OpArray:
		return ip.resolve(append([]any{}, ins.Args...))
	case instr.OpDict:
		return ip.executeDict(ins)
	case instr.OpIndex:
		return ip.executeIndex(ins)
	case instr.OpLen:
		return ip.executeLen(ins)
	case instr.OpSwitch:
		return ip.executeSwitch(ins)
	case instr.OpExit:
		return ip.executeExit(ins)
	case instr.OpArith:
		return ip.executeArith(ins)
	case instr.OpCompare:
		return ip.executeCompare(ins)
	default:
		return ip.executeCall(ins)
	}
}

// Run evaluates a sequence of instructions in order, threading a running
// result. Elements that are bare tag strings are normalized to zero-operand
// instructions. Signals propagate immediately to the caller.
func (ip *Interp) Run(seq []any) (Result, error) {
	var last Result
	for i, element := range seq {
		ins, ok := instr.Normalize(element)
		if !ok {
			return Result{}, errf(ErrSyntax, "not an instruction: %s", formatValue(element))
		}
		res, err := ip.exec(ins, i+1)
		if err != nil {
			return Result{}, err
		}
		if res.Signal != SignalNone {
			return res, nil
		}
		last = res
	}
	return last, nil
}

// RunProgram evaluates a top-level instruction sequence. A signal escaping
// the whole program is a syntax error; any error is reported to the error
// stream as "<ErrorKind>: <message>" followed by the stack trace captured at
// the failure point. The returned error is non-nil exactly when a report was
// written, and the caller is expected to terminate with a nonzero status.
func (ip *Interp) RunProgram(seq []any) error {
	res, err := ip.Run(seq)
	if err == nil && res.Signal != SignalNone {
		err = errf(ErrSyntax, "'%s' outside of %s", res.Signal, signalHome(res.Signal))
	}
	if err == nil {
		return nil
	}
	if re, ok := err.(*RuntimeError); ok {
		fmt.Fprintf(ip.stderr, "\n%s\n", re.Report())
	} else {
		fmt.Fprintf(ip.stderr, "\n%v\n", err)
	}
	ip.stack.Clear()
	return err
}

// signalHome names the construct a stray signal should have been consumed by.
func signalHome(s Signal) string {
	if s == SignalReturn {
		return "function"
	}
	return "loop"
}

// runBody evaluates a compound operand: a sequence runs as a nested
// instruction sequence in the current scope, anything else as a single
// normalized instruction.
func (ip *Interp) runBody(body any) (Result, error) {
	if seq, ok := body.([]any); ok {
		return ip.Run(seq)
	}
	ins, ok := instr.Normalize(body)
	if !ok {
		return Result{}, errf(ErrSyntax, "not an instruction: %s", formatValue(body))
	}
	return ip.exec(ins, 0)
}

func (ip *Interp) executeVar(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 2 {
		return Result{}, errf(ErrSyntax, "var takes 2 arguments (name, value)")
	}
	name, ok := ins.Args[0].(string)
	if !ok {
		return Result{}, errf(ErrSyntax, "var name must be a string, not %s", typeName(ins.Args[0]))
	}
	res, err := ip.resolve(ins.Args[1])
	if err != nil || res.Signal != SignalNone {
		return res, err
	}
	ip.scope.Set(name, res.Value)
	return res, nil
}

func (ip *Interp) executeConvert(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 1 {
		return Result{}, errf(ErrSyntax, "%s takes 1 argument", ins.Tag)
	}
	res, err := ip.resolve(ins.Args[0])
	if err != nil || res.Signal != SignalNone {
		return res, err
	}
	switch ins.Op {
	case instr.OpInt:
		n, err := convertInt(res.Value)
		if err != nil {
			return Result{}, err
		}
		return value(n), nil
	case instr.OpFloat:
		f, err := convertFloat(res.Value)
		if err != nil {
			return Result{}, err
		}
		return value(f), nil
	case instr.OpStr:
		return value(formatValue(res.Value)), nil
	default: // OpBool
		return value(truthy(res.Value)), nil
	}
}

func (ip *Interp) executeFunc(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 3 {
		return Result{}, errf(ErrSyntax, "func takes 3 arguments (name, params, body)")
	}
	name, ok := ins.Args[0].(string)
	if !ok {
		return Result{}, errf(ErrSyntax, "func name must be a string, not %s", typeName(ins.Args[0]))
	}
	rawParams, ok := ins.Args[1].([]any)
	if !ok {
		return Result{}, errf(ErrSyntax, "func params must be a sequence of names")
	}
	params := make([]string, len(rawParams))
	for i, p := range rawParams {
		s, ok := p.(string)
		if !ok {
			return Result{}, errf(ErrSyntax, "func parameter must be a string, not %s", typeName(p))
		}
		params[i] = s
	}
	body, ok := ins.Args[2].([]any)
	if !ok {
		return Result{}, errf(ErrSyntax, "func body must be a sequence")
	}

	fn := &Func{Name: name, Params: params, Body: body}
	ip.scope.Set(name, fn)
	ip.log.Debug("function defined", "name", name, "params", len(params))
	return value(fn), nil
}

func (ip *Interp) executeReturn(ins *instr.Instruction) (Result, error) {
	switch len(ins.Args) {
	case 0:
		return Result{Signal: SignalReturn}, nil
	case 1:
		res, err := ip.resolve(ins.Args[0])
		if err != nil || res.Signal != SignalNone {
			return res, err
		}
		return Result{Value: res.Value, Signal: SignalReturn}, nil
	default:
		values := make([]any, len(ins.Args))
		for i, arg := range ins.Args {
			res, err := ip.resolve(arg)
			if err != nil || res.Signal != SignalNone {
				return res, err
			}
			values[i] = res.Value
		}
		return Result{Value: values, Signal: SignalReturn}, nil
	}
}

func (ip *Interp) executeExport(ins *instr.Instruction) (Result, error) {
	names := make([]string, len(ins.Args))
	for i, arg := range ins.Args {
		s, ok := arg.(string)
		if !ok {
			return Result{}, errf(ErrSyntax, "export name must be a string, not %s", typeName(arg))
		}
		names[i] = s
	}
	if err := ip.scope.Export(names...); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

func (ip *Interp) executeIf(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) < 2 || len(ins.Args) > 3 {
		return Result{}, errf(ErrSyntax, "if takes 2 or 3 arguments (condition, then, [else])")
	}
	cond, err := ip.resolve(ins.Args[0])
	if err != nil || cond.Signal != SignalNone {
		return cond, err
	}
	if truthy(cond.Value) {
		return ip.runBody(ins.Args[1])
	}
	if len(ins.Args) == 3 {
		return ip.runBody(ins.Args[2])
	}
	return Result{}, nil
}

// executeWhile loops while the condition holds. The loop's result is the
// value of the last completed body iteration; an iteration cut short by
// break or continue leaves the recorded result untouched. Return signals
// pass through to the enclosing call boundary.
func (ip *Interp) executeWhile(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 2 {
		return Result{}, errf(ErrSyntax, "while takes 2 arguments (condition, body)")
	}
	condExpr := ins.Args[0]
	body := ins.Args[1]

	var last Result
	for {
		var cond Result
		var err error
		if condIns, ok := condExpr.(*instr.Instruction); ok {
			cond, err = ip.exec(condIns, 0)
		} else {
			cond, err = ip.resolve(condExpr)
		}
		if err != nil || cond.Signal != SignalNone {
			return cond, err
		}
		if !truthy(cond.Value) {
			return last, nil
		}

		res, err := ip.runBody(body)
		if err != nil {
			return Result{}, err
		}
		switch res.Signal {
		case SignalBreak:
			return last, nil
		case SignalContinue:
			continue
		case SignalReturn:
			return res, nil
		}
		last = res
	}
}

// executeFor resolves the iterable once, then binds each element to the
// loop variable in the current scope and runs the body. Break and continue
// behave as in while.
func (ip *Interp) executeFor(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 3 {
		return Result{}, errf(ErrSyntax, "for takes 3 arguments (name, iterable, body)")
	}
	name, ok := ins.Args[0].(string)
	if !ok {
		return Result{}, errf(ErrSyntax, "for variable must be a string, not %s", typeName(ins.Args[0]))
	}
	iter, err := ip.resolve(ins.Args[1])
	if err != nil || iter.Signal != SignalNone {
		return iter, err
	}
	elements, err := iterate(iter.Value)
	if err != nil {
		return Result{}, err
	}
	body := ins.Args[2]

	var last Result
	for _, element := range elements {
		ip.scope.Set(name, element)

		res, err := ip.runBody(body)
		if err != nil {
			return Result{}, err
		}
		switch res.Signal {
		case SignalBreak:
			return last, nil
		case SignalContinue:
			continue
		case SignalReturn:
			return res, nil
		}
		last = res
	}
	return last, nil
}

// iterate turns a value into the element sequence a for loop walks:
// sequences iterate their elements, strings their characters.
func iterate(v any) ([]any, error) {
	switch val := v.(type) {
	case []any:
		return val, nil
	case string:
		out := make([]any, 0, len(val))
		for _, r := range val {
			out = append(out, string(r))
		}
		return out, nil
	default:
		return nil, errf(ErrType, "%s is not iterable", typeName(v))
	}
}

func (ip *Interp) executeGet(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 1 {
		return Result{}, errf(ErrSyntax, "get takes 1 argument")
	}
	name, ok := ins.Args[0].(string)
	if !ok {
		return Result{}, errf(ErrSyntax, "get name must be a string, not %s", typeName(ins.Args[0]))
	}
	val, err := ip.scope.Get(name)
	if err != nil {
		return Result{}, err
	}
	return value(val), nil
}

// executePrint writes all resolved arguments space-separated with no
// trailing newline, and returns the single value or the list of values.
func (ip *Interp) executePrint(ins *instr.Instruction) (Result, error) {
	resolved := make([]any, len(ins.Args))
	parts := make([]string, len(ins.Args))
	for i, arg := range ins.Args {
		res, err := ip.resolve(arg)
		if err != nil || res.Signal != SignalNone {
			return res, err
		}
		resolved[i] = res.Value
		parts[i] = formatValue(res.Value)
	}
	if _, err := io.WriteString(ip.stdout, strings.Join(parts, " ")); err != nil {
		return Result{}, errf(ErrValue, "write failed: %v", err)
	}
	switch len(resolved) {
	case 0:
		return Result{}, nil
	case 1:
		return value(resolved[0]), nil
	default:
		return value(resolved), nil
	}
}

// executeInput reads one line from the input stream and coerces it to the
// requested type tag (str when absent).
func (ip *Interp) executeInput(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) > 1 {
		return Result{}, errf(ErrSyntax, "input takes no or one argument")
	}
	typeTag := "str"
	if len(ins.Args) == 1 {
		s, ok := ins.Args[0].(string)
		if !ok {
			return Result{}, errf(ErrType, "unknown data type: %s", formatValue(ins.Args[0]))
		}
		typeTag = s
	}

	line, err := ip.stdin.ReadString('\n')
	if err != nil && line == "" {
		return Result{}, errf(ErrValue, "input failed: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")

	switch typeTag {
	case "str":
		return value(line), nil
	case "int":
		n, err := convertInt(line)
		if err != nil {
			return Result{}, err
		}
		return value(n), nil
	case "float":
		f, err := convertFloat(line)
		if err != nil {
			return Result{}, err
		}
		return value(f), nil
	case "bool":
		return value(truthy(line)), nil
	default:
		return Result{}, errf(ErrType, "unknown data type: %s", typeTag)
	}
}

// executeDict builds a mapping from alternating key/value arguments; later
// duplicate keys overwrite earlier ones.
func (ip *Interp) executeDict(ins *instr.Instruction) (Result, error) {
	if len(ins.Args)%2 != 0 {
		return Result{}, errf(ErrSyntax, "dict requires an even number of arguments (key-value pairs)")
	}
	out := make(map[any]any, len(ins.Args)/2)
	for i := 0; i < len(ins.Args); i += 2 {
		key, err := ip.resolve(ins.Args[i])
		if err != nil || key.Signal != SignalNone {
			return key, err
		}
		if !hashable(key.Value) {
			return Result{}, errf(ErrType, "unhashable key type: %s", typeName(key.Value))
		}
		val, err := ip.resolve(ins.Args[i+1])
		if err != nil || val.Signal != SignalNone {
			return val, err
		}
		// Numeric keys are stored via valueEquals semantics: replace any
		// existing key that compares equal before inserting.
		for k := range out {
			if valueEquals(k, key.Value) {
				delete(out, k)
				break
			}
		}
		out[key.Value] = val.Value
	}
	return value(out), nil
}

func (ip *Interp) executeIndex(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 2 {
		return Result{}, errf(ErrSyntax, "index takes 2 arguments (container, index)")
	}
	container, err := ip.resolve(ins.Args[0])
	if err != nil || container.Signal != SignalNone {
		return container, err
	}
	idx, err := ip.resolve(ins.Args[1])
	if err != nil || idx.Signal != SignalNone {
		return idx, err
	}
	element, ierr := indexValue(container.Value, idx.Value)
	if ierr != nil {
		return Result{}, ierr
	}
	return value(element), nil
}

func (ip *Interp) executeLen(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) != 1 {
		return Result{}, errf(ErrSyntax, "len takes 1 argument")
	}
	res, err := ip.resolve(ins.Args[0])
	if err != nil || res.Signal != SignalNone {
		return res, err
	}
	n, lerr := lengthOf(res.Value)
	if lerr != nil {
		return Result{}, lerr
	}
	return value(n), nil
}

// executeSwitch matches the scrutinee against case mappings in order; the
// first case whose key resolves equal wins and short-circuits the rest. The
// last argument is the default body only when it is a bare sequence rather
// than a case mapping. No match and no default yields nil.
func (ip *Interp) executeSwitch(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) < 2 {
		return Result{}, errf(ErrSyntax, "switch expects at least 2 arguments (value, cases...)")
	}
	scrutinee, err := ip.resolve(ins.Args[0])
	if err != nil || scrutinee.Signal != SignalNone {
		return scrutinee, err
	}

	cases := ins.Args[1:]
	var defaultBody []any
	if seq, ok := cases[len(cases)-1].([]any); ok {
		defaultBody = seq
		cases = cases[:len(cases)-1]
	}

	for _, c := range cases {
		caseMap, ok := c.(map[any]any)
		if !ok {
			return Result{}, errf(ErrSyntax, "switch case must be a mapping of {value: body}, got %s", typeName(c))
		}
		if len(caseMap) != 1 {
			return Result{}, errf(ErrSyntax, "switch case must hold exactly one value-body pair")
		}
		for caseKey, caseBody := range caseMap {
			key, err := ip.resolve(caseKey)
			if err != nil || key.Signal != SignalNone {
				return key, err
			}
			if valueEquals(scrutinee.Value, key.Value) {
				return ip.runBody(caseBody)
			}
		}
	}

	if defaultBody != nil {
		return ip.Run(defaultBody)
	}
	return Result{}, nil
}

// executeExit terminates the process with status 0, or with the resolved
// argument coerced to an integer status.
func (ip *Interp) executeExit(ins *instr.Instruction) (Result, error) {
	switch len(ins.Args) {
	case 0:
		ip.exit(0)
		return Result{}, nil
	case 1:
		res, err := ip.resolve(ins.Args[0])
		if err != nil || res.Signal != SignalNone {
			return res, err
		}
		status, cerr := convertInt(res.Value)
		if cerr != nil {
			return Result{}, cerr
		}
		ip.exit(int(status))
		return Result{}, nil
	default:
		return Result{}, errf(ErrValue, "exit takes 1 optional argument")
	}
}

// executeCall treats a non-built-in tag as a user function call. Arguments
// are resolved in the caller's scope and bound by name into a fresh child
// scope whose parent is the caller's current scope; the body runs with the
// shared call stack under the function's name. A Return signal is consumed
// here and becomes the call's result; a Break or Continue escaping the body
// is an error.
func (ip *Interp) executeCall(ins *instr.Instruction) (Result, error) {
	if !ip.scope.HasCallable(ins.Tag) {
		return Result{}, errf(ErrSyntax, "unknown instruction: %s", ins.Tag)
	}
	callee, err := ip.scope.Get(ins.Tag)
	if err != nil {
		return Result{}, err
	}
	fn := callee.(*Func)

	if len(ins.Args) != len(fn.Params) {
		return Result{}, errf(ErrSyntax, "%s requires %d argument(s), got %d",
			ins.Tag, len(fn.Params), len(ins.Args))
	}

	// The parent is the scope active at the call site, not the scope that
	// lexically encloses the definition.
	callScope := NewScope(ip.scope)
	for i, param := range fn.Params {
		res, err := ip.resolve(ins.Args[i])
		if err != nil || res.Signal != SignalNone {
			return res, err
		}
		callScope.Set(param, res.Value)
	}

	ip.log.Debug("calling function", "name", fn.Name, "args", len(ins.Args))
	res, err := ip.fork(callScope, fn.Name).Run(fn.Body)
	if err != nil {
		return Result{}, err
	}
	switch res.Signal {
	case SignalReturn:
		return value(res.Value), nil
	case SignalBreak, SignalContinue:
		return Result{}, errf(ErrSyntax, "'%s' outside of loop", res.Signal)
	default:
		return Result{}, nil
	}
}
