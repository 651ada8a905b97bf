package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/jdl-lang/jdl/pkg/instr"
)

// TestLoadJSON tests conversion of the JSON program form.
func TestLoadJSON(t *testing.T) {
	t.Run("builds instructions with resolved ops", func(t *testing.T) {
		prog, err := LoadJSON([]byte(`{
			"code": [
				{"op": "var", "args": ["x", 5]},
				{"op": "print", "args": [{"op": "get", "args": ["x"]}]}
			]
		}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(prog.Code) != 2 {
			t.Fatalf("expected 2 instructions, got %d", len(prog.Code))
		}

		first := prog.Code[0].(*instr.Instruction)
		if first.Tag != "var" || first.Op != instr.OpVar {
			t.Errorf("unexpected first instruction: %+v", first)
		}
		if first.Args[0] != "x" || first.Args[1] != int64(5) {
			t.Errorf("unexpected args: %v", first.Args)
		}

		second := prog.Code[1].(*instr.Instruction)
		nested, ok := second.Args[0].(*instr.Instruction)
		if !ok || nested.Op != instr.OpGet {
			t.Errorf("expected nested get instruction, got %v", second.Args[0])
		}
	})

	t.Run("keeps integral numbers as int64 and decimals as float64", func(t *testing.T) {
		prog, err := LoadJSON([]byte(`{"code": [{"op": "array", "args": [1, 2.5]}]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		arr := prog.Code[0].(*instr.Instruction)
		if arr.Args[0] != int64(1) {
			t.Errorf("expected int64 1, got %T %v", arr.Args[0], arr.Args[0])
		}
		if arr.Args[1] != 2.5 {
			t.Errorf("expected float64 2.5, got %T %v", arr.Args[1], arr.Args[1])
		}
	})

	t.Run("bare tag strings survive as shorthand", func(t *testing.T) {
		prog, err := LoadJSON([]byte(`{"code": ["break"]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prog.Code[0] != "break" {
			t.Errorf("expected shorthand string, got %v", prog.Code[0])
		}
	})

	t.Run("objects without op become mapping literals with parsed keys", func(t *testing.T) {
		prog, err := LoadJSON([]byte(`{
			"code": [{"op": "switch", "args": [2,
				{"1": [{"op": "print", "args": ["one"]}]},
				{"2": [{"op": "print", "args": ["two"]}]}
			]}]
		}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sw := prog.Code[0].(*instr.Instruction)
		caseMap := sw.Args[1].(map[any]any)
		if _, ok := caseMap[int64(1)]; !ok {
			t.Errorf("expected numeric case key, got %v", caseMap)
		}
	})

	t.Run("rejects documents without code", func(t *testing.T) {
		if _, err := LoadJSON([]byte(`{"instructions": []}`)); err == nil {
			t.Error("expected schema rejection")
		}
	})

	t.Run("rejects instructions with unknown keys", func(t *testing.T) {
		_, err := LoadJSON([]byte(`{"code": [{"op": "var", "arg": []}]}`))
		if err == nil {
			t.Error("expected schema rejection")
		}
	})

	t.Run("rejects non-object documents", func(t *testing.T) {
		if _, err := LoadJSON([]byte(`[1, 2]`)); err == nil {
			t.Error("expected schema rejection")
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		if _, err := LoadJSON([]byte(`{"code": [`)); err == nil {
			t.Error("expected parse failure")
		}
	})
}

// TestLoadYAML tests the YAML program form.
func TestLoadYAML(t *testing.T) {
	t.Run("loads the same document shape", func(t *testing.T) {
		prog, err := LoadYAML([]byte(`
code:
  - op: var
    args: [total, 0]
  - op: for
    args:
      - i
      - op: array
        args: [1, 2, 3]
      - - op: var
          args:
            - total
            - op: "+"
              args: ["$total", "$i"]
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(prog.Code) != 2 {
			t.Fatalf("expected 2 instructions, got %d", len(prog.Code))
		}
		forIns := prog.Code[1].(*instr.Instruction)
		if forIns.Op != instr.OpFor {
			t.Errorf("expected for instruction, got %+v", forIns)
		}
		body, ok := forIns.Args[2].([]any)
		if !ok || len(body) != 1 {
			t.Fatalf("expected body sequence, got %v", forIns.Args[2])
		}
		if body[0].(*instr.Instruction).Op != instr.OpVar {
			t.Errorf("unexpected body instruction: %v", body[0])
		}
	})

	t.Run("yaml integers become int64", func(t *testing.T) {
		prog, err := LoadYAML([]byte("code:\n  - op: var\n    args: [x, 7]\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ins := prog.Code[0].(*instr.Instruction)
		if ins.Args[1] != int64(7) {
			t.Errorf("expected int64 7, got %T %v", ins.Args[1], ins.Args[1])
		}
	})

	t.Run("rejects documents without code", func(t *testing.T) {
		if _, err := LoadYAML([]byte("other: 1\n")); err == nil {
			t.Error("expected rejection")
		}
	})
}

// TestDecodeText tests BOM handling.
func TestDecodeText(t *testing.T) {
	t.Run("strips a UTF-8 BOM", func(t *testing.T) {
		doc := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"code": []}`)...)
		if _, err := LoadJSON(doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("transcodes UTF-16", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		doc, err := enc.Bytes([]byte(`{"code": [{"op": "print", "args": ["hi"]}]}`))
		if err != nil {
			t.Fatalf("failed to build fixture: %v", err)
		}
		prog, err := LoadJSON(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(prog.Code) != 1 {
			t.Errorf("expected 1 instruction, got %d", len(prog.Code))
		}
	})
}

// TestLoadFile tests file access and format selection.
func TestLoadFile(t *testing.T) {
	t.Run("loads JSON by default extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prog.json")
		if err := os.WriteFile(path, []byte(`{"code": [{"op": "print", "args": ["hi"]}]}`), 0o644); err != nil {
			t.Fatal(err)
		}
		prog, err := LoadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prog.Path != path {
			t.Errorf("expected path %q, got %q", path, prog.Path)
		}
	})

	t.Run("loads YAML by extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prog.yaml")
		if err := os.WriteFile(path, []byte("code:\n  - op: print\n    args: [hi]\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing file reports not found", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}
