package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/store"
)

const testBoard = `{"children": [
	{"id": "a", "type": "geometry", "shape": "rect", "x": 0, "y": 0, "width": 10, "height": 10},
	{"id": "b", "type": "geometry", "shape": "rect", "x": 20, "y": 0, "width": 10, "height": 10},
	{"id": "c", "type": "geometry", "shape": "ellipse", "x": 40, "y": 0, "width": 10, "height": 10}
]}`

// newTestCLI returns a CLI isolated from the user's config and store, with
// stdout captured.
func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WHITEBOARD_STORE", store.BackendFile)
	t.Setenv("WHITEBOARD_DIR", t.TempDir())
	t.Setenv("WHITEBOARD_COMPRESS", "")

	c := New(io.Discard, LogInfo)
	var out bytes.Buffer
	c.stdout = &out
	c.stdin = strings.NewReader("")
	return c, &out
}

func runCLI(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func readBoard(t *testing.T, file string) board.Data {
	t.Helper()
	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	d, err := board.ParseData(raw)
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	return d
}

func ids(d board.Data) []string {
	out := make([]string, len(d.Children))
	for i, el := range d.Children {
		out[i] = el.ID
	}
	return out
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,dot", []string{"svg", "dot"}},
		{" svg , png ,", []string{"svg", "png"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	if err := validateFormats([]string{"svg", "dot", "png"}); err != nil {
		t.Errorf("validateFormats(valid) = %v, want nil", err)
	}
	if err := validateFormats([]string{"svg", "pdf"}); err == nil {
		t.Error("validateFormats(pdf) = nil, want error")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"from input", "", "sketch.json", "sketch"},
		{"board suffix", "", "sketch.board.json", "sketch"},
		{"stdin", "", "-", "board"},
		{"no input", "", "", "board"},
		{"format ext", "out/final.svg", "sketch.json", "out/final"},
		{"other ext", "out/final.v2", "sketch.json", "out/final.v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestSourceFromArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		id      string
		want    boardSource
		wantErr bool
	}{
		{"file", []string{"b.json"}, "", boardSource{path: "b.json"}, false},
		{"id", nil, "sketch", boardSource{id: "sketch"}, false},
		{"both", []string{"b.json"}, "sketch", boardSource{}, true},
		{"neither", nil, "", boardSource{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sourceFromArgs(tt.args, tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("source = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBoardSourceString(t *testing.T) {
	tests := []struct {
		src  boardSource
		want string
	}{
		{boardSource{path: "b.json"}, "b.json"},
		{boardSource{path: stdio}, "stdin"},
		{boardSource{id: "x"}, "store:x"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRebaseAll(t *testing.T) {
	pending := []op.Operation{
		op.SetNode{Path: path.Path{2}, Properties: nil, NewProperties: map[string]any{"x": 1.0}},
		op.SetNode{Path: path.Path{0}, Properties: nil, NewProperties: map[string]any{"x": 2.0}},
		op.SetNode{Path: path.Path{3}, Properties: nil, NewProperties: map[string]any{"x": 3.0}},
	}
	applied := []op.Operation{
		op.RemoveNode{Path: path.Path{0}},
		op.RemoveNode{Path: path.Path{1}},
	}

	kept, dropped := rebaseAll(pending, applied)

	if want := []int{0, 1}; !reflect.DeepEqual(dropped, want) {
		t.Errorf("dropped = %v, want %v", dropped, want)
	}
	if len(kept) != 1 {
		t.Fatalf("kept = %d operations, want 1", len(kept))
	}
	if got := kept[0].(op.SetNode).Path; !path.Equal(got, path.Path{1}) {
		t.Errorf("kept path = %v, want [1]", got)
	}
}

func TestMapPath(t *testing.T) {
	applied := []op.Operation{op.InsertNode{Path: path.Path{0}}, op.RemoveNode{Path: path.Path{3}}}

	got, ok := mapPath(path.Path{1, 4}, applied, false)
	if !ok || !path.Equal(got, path.Path{2, 4}) {
		t.Errorf("mapPath([1 4]) = %v, %v, want [2 4], true", got, ok)
	}
	if _, ok := mapPath(path.Path{2}, applied, false); ok {
		t.Error("mapPath([2]) survived removal, want false")
	}
}

func TestApplyCommand(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "sketch.json", testBoard)
	ops := writeFile(t, dir, "ops.json", `[
		{"type": "remove_node", "path": [0]},
		{"type": "set_node", "path": [2], "properties": {"x": 40}, "newProperties": {"x": 45}}
	]`)
	out := filepath.Join(dir, "out.json")

	if err := runCLI(t, c, "apply", in, "--ops", ops, "-o", out); err != nil {
		t.Fatalf("apply: %v", err)
	}

	d := readBoard(t, out)
	if got, want := ids(d), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("children = %v, want %v", got, want)
	}
	if x, _ := d.Children[1].Props.Float("x"); x != 45 {
		t.Errorf("c.x = %v, want 45", x)
	}
	if got := readBoard(t, in); len(got.Children) != 3 {
		t.Errorf("source changed: %d children, want 3", len(got.Children))
	}
}

func TestApplyCommandSequential(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "sketch.json", testBoard)
	ops := writeFile(t, dir, "ops.json", `[
		{"type": "remove_node", "path": [0]},
		{"type": "set_node", "path": [2], "properties": {}, "newProperties": {"x": 45}}
	]`)

	if err := runCLI(t, c, "apply", in, "--ops", ops, "--sequential"); err == nil {
		t.Fatal("apply --sequential = nil, want error for the stale path")
	}
	if got := readBoard(t, in); len(got.Children) != 3 {
		t.Errorf("source changed after failure: %d children, want 3", len(got.Children))
	}
}

func TestApplyCommandDryRun(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "sketch.json", testBoard)
	ops := writeFile(t, dir, "ops.json", `[{"type": "remove_node", "path": [0]}]`)

	if err := runCLI(t, c, "apply", in, "--ops", ops, "--dry-run"); err != nil {
		t.Fatalf("apply --dry-run: %v", err)
	}
	if got := readBoard(t, in); len(got.Children) != 3 {
		t.Errorf("dry run wrote the board: %d children, want 3", len(got.Children))
	}
}

func TestApplyCommandStdout(t *testing.T) {
	c, out := newTestCLI(t)
	c.stdin = strings.NewReader(testBoard)
	dir := t.TempDir()
	ops := writeFile(t, dir, "ops.json", `[{"type": "move_node", "path": [0], "newPath": [2]}]`)

	if err := runCLI(t, c, "apply", "-", "--ops", ops); err != nil {
		t.Fatalf("apply: %v", err)
	}
	d, err := board.ParseData(out.Bytes())
	if err != nil {
		t.Fatalf("stdout is not a board: %v", err)
	}
	if got, want := ids(d), []string{"b", "c", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("children = %v, want %v", got, want)
	}
}

func TestRenderCommand(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "sketch.json", testBoard)

	if err := runCLI(t, c, "render", in, "-f", "svg,dot", "--fit"); err != nil {
		t.Fatalf("render: %v", err)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "sketch.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte(`"c"`)) {
		t.Errorf("svg output missing root or element c:\n%s", svg)
	}
	dot, err := os.ReadFile(filepath.Join(dir, "sketch.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(dot, []byte("digraph")) {
		t.Errorf("dot output = %q, want a digraph", dot)
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	c, _ := newTestCLI(t)
	in := writeFile(t, t.TempDir(), "sketch.json", testBoard)
	if err := runCLI(t, c, "render", in, "-f", "pdf"); err == nil {
		t.Error("render -f pdf = nil, want error")
	}
}

func TestTransformCommandPath(t *testing.T) {
	c, out := newTestCLI(t)
	over := writeFile(t, t.TempDir(), "applied.json", `[{"type": "remove_node", "path": [0]}]`)

	if err := runCLI(t, c, "transform", "--over", over, "--path", "1,2"); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "[0 2]" {
		t.Errorf("mapped = %q, want [0 2]", got)
	}

	out.Reset()
	if err := runCLI(t, c, "transform", "--over", over, "--path", "2"); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "[1]" {
		t.Errorf("mapped = %q, want [1]", got)
	}
}

func TestTransformCommandOps(t *testing.T) {
	c, out := newTestCLI(t)
	dir := t.TempDir()
	over := writeFile(t, dir, "applied.json", `[{"type": "insert_node", "path": [0], "node": {"id": "z", "type": "geometry"}}]`)
	pending := writeFile(t, dir, "pending.json", `[{"type": "remove_node", "path": [1]}]`)

	if err := runCLI(t, c, "transform", "--over", over, "--ops", pending); err != nil {
		t.Fatalf("transform: %v", err)
	}
	ops, err := op.UnmarshalList(out.Bytes())
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if len(ops) != 1 || !path.Equal(ops[0].(op.RemoveNode).Path, path.Path{2}) {
		t.Errorf("rebased = %+v, want remove at [2]", ops)
	}
}

func TestTransformCommandFlags(t *testing.T) {
	c, _ := newTestCLI(t)
	over := writeFile(t, t.TempDir(), "applied.json", `[]`)
	if err := runCLI(t, c, "transform", "--over", over); err == nil {
		t.Error("transform without --ops or --path = nil, want error")
	}
}

func TestStatsOf(t *testing.T) {
	d, err := board.ParseData([]byte(`{"children": [
		{"id": "g", "type": "group", "children": [
			{"id": "a", "type": "geometry", "groupId": "g"},
			{"id": "b", "type": "geometry", "groupId": "g"}
		]},
		{"id": "n", "type": "sticky"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	b := newPluginBoard(t, d)

	s := statsOf(b)
	if s.Elements != 4 {
		t.Errorf("Elements = %d, want 4", s.Elements)
	}
	if s.Depth != 2 {
		t.Errorf("Depth = %d, want 2", s.Depth)
	}
	if s.Types["geometry"] != 2 || s.Types["group"] != 1 {
		t.Errorf("Types = %v, want geometry:2 group:1", s.Types)
	}
	if s.Unrendered != 1 {
		t.Errorf("Unrendered = %d, want 1", s.Unrendered)
	}
}

func TestInspectCommand(t *testing.T) {
	c, out := newTestCLI(t)
	in := writeFile(t, t.TempDir(), "sketch.json", testBoard)

	if err := runCLI(t, c, "inspect", in, "--tree"); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Elements", "3 (3 root-level, depth 1)", "geometry"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStoreCommands(t *testing.T) {
	c, out := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "sketch.json", testBoard)

	if err := runCLI(t, c, "store", "put", "sketch", in, "--title", "Sketch"); err != nil {
		t.Fatalf("store put: %v", err)
	}

	out.Reset()
	if err := runCLI(t, c, "store", "list", "--json"); err != nil {
		t.Fatalf("store list: %v", err)
	}
	var list []store.Summary
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		t.Fatalf("list output: %v", err)
	}
	if len(list) != 1 || list[0].ID != "sketch" || list[0].Title != "Sketch" {
		t.Errorf("list = %+v, want one board sketch/Sketch", list)
	}

	ops := writeFile(t, dir, "ops.json", `[{"type": "remove_node", "path": [0]}]`)
	if err := runCLI(t, c, "apply", "--id", "sketch", "--ops", ops); err != nil {
		t.Fatalf("apply --id: %v", err)
	}

	got := filepath.Join(dir, "got.json")
	if err := runCLI(t, c, "store", "get", "sketch", "-o", got); err != nil {
		t.Fatalf("store get: %v", err)
	}
	if d := readBoard(t, got); !reflect.DeepEqual(ids(d), []string{"b", "c"}) {
		t.Errorf("stored children = %v, want [b c]", ids(d))
	}

	out.Reset()
	if err := runCLI(t, c, "store", "list", "--json"); err != nil {
		t.Fatalf("store list: %v", err)
	}
	list = nil
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		t.Fatalf("list output: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Sketch" {
		t.Errorf("title after apply = %+v, want Sketch kept", list)
	}

	if err := runCLI(t, c, "store", "delete", "sketch"); err != nil {
		t.Fatalf("store delete: %v", err)
	}
	if err := runCLI(t, c, "store", "get", "sketch"); err == nil {
		t.Error("store get after delete = nil, want error")
	}
}

func TestVersionCommand(t *testing.T) {
	c, out := newTestCLI(t)
	if err := runCLI(t, c, "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "version:") {
		t.Errorf("output = %q, want build info", out)
	}
}

func TestConfigLogLevel(t *testing.T) {
	c, _ := newTestCLI(t)
	t.Setenv("WHITEBOARD_LOG_LEVEL", "debug")
	if err := runCLI(t, c, "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := c.Logger.GetLevel(); got != LogDebug {
		t.Errorf("level = %v, want debug", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
