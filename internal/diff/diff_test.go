package diff

import (
	"reflect"
	"strings"
	"testing"
)

func TestComputeIdentical(t *testing.T) {
	if fd := Compute("a.rs", []byte("x\n"), []byte("x\n"), DefaultContext); fd != nil {
		t.Fatalf("expected nil diff, got %+v", fd)
	}
}

func TestComputeLineEndingsOnly(t *testing.T) {
	if fd := Compute("a.rs", []byte("x\r\ny\r\n"), []byte("x\ny\n"), DefaultContext); fd != nil {
		t.Fatalf("expected nil diff for line endings only, got %+v", fd)
	}
}

func TestComputeSingleReplacement(t *testing.T) {
	before := "fn main() {\n    let x: i32 = \"five\";\n}\n"
	after := "fn main() {\n    let x: i32 = 5;\n}\n"
	fd := Compute("src/main.rs", []byte(before), []byte(after), DefaultContext)
	if fd == nil {
		t.Fatalf("expected a diff")
	}
	if len(fd.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(fd.Hunks))
	}
	h := fd.Hunks[0]
	if h.OrigStartLine != 1 || h.OrigLines != 3 || h.NewStartLine != 1 || h.NewLines != 3 {
		t.Fatalf("unexpected hunk range: -%d,%d +%d,%d", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
	}
	want := " fn main() {\n-    let x: i32 = \"five\";\n+    let x: i32 = 5;\n }\n"
	if string(h.Body) != want {
		t.Fatalf("unexpected body:\n%s", h.Body)
	}
	if got := Path(fd); got != "src/main.rs" {
		t.Fatalf("unexpected path: %s", got)
	}
}

func TestComputeAppend(t *testing.T) {
	fd := Compute("a.rs", []byte("1\n2\n"), []byte("1\n2\n3\n"), 1)
	if fd == nil || len(fd.Hunks) != 1 {
		t.Fatalf("expected one hunk, got %+v", fd)
	}
	h := fd.Hunks[0]
	if h.OrigStartLine != 2 || h.OrigLines != 1 || h.NewStartLine != 2 || h.NewLines != 2 {
		t.Fatalf("unexpected hunk range: -%d,%d +%d,%d", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
	}
	if got := ChangedLines(fd); !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("unexpected changed lines: %v", got)
	}
}

func TestComputeAppendToEmptyFile(t *testing.T) {
	fd := Compute("a.rs", nil, []byte("fn f() {}\n"), DefaultContext)
	if fd == nil || len(fd.Hunks) != 1 {
		t.Fatalf("expected one hunk, got %+v", fd)
	}
	h := fd.Hunks[0]
	if h.OrigStartLine != 0 || h.OrigLines != 0 || h.NewStartLine != 1 || h.NewLines != 1 {
		t.Fatalf("unexpected hunk range: -%d,%d +%d,%d", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
	}
}

func TestComputeSeparatesDistantEdits(t *testing.T) {
	var before, after []string
	for i := 1; i <= 20; i++ {
		line := "line" + strings.Repeat("x", i)
		before = append(before, line)
		switch i {
		case 2, 18:
			after = append(after, "changed")
		default:
			after = append(after, line)
		}
	}
	fd := Compute("a.rs", []byte(strings.Join(before, "\n")+"\n"), []byte(strings.Join(after, "\n")+"\n"), DefaultContext)
	if fd == nil || len(fd.Hunks) != 2 {
		t.Fatalf("expected two hunks, got %+v", fd)
	}
	if got := ChangedLines(fd); !reflect.DeepEqual(got, []int{2, 18}) {
		t.Fatalf("unexpected changed lines: %v", got)
	}
}

func TestComputeMergesNearbyEdits(t *testing.T) {
	before := "a\nb\nc\nd\ne\nf\n"
	after := "A\nb\nc\nd\ne\nF\n"
	fd := Compute("a.rs", []byte(before), []byte(after), DefaultContext)
	if fd == nil || len(fd.Hunks) != 1 {
		t.Fatalf("expected one hunk, got %+v", fd)
	}
	if got := ChangedLines(fd); !reflect.DeepEqual(got, []int{1, 6}) {
		t.Fatalf("unexpected changed lines: %v", got)
	}
}

func TestRenderAndParse(t *testing.T) {
	first := Compute("src/lib.rs", []byte("a\nb\n"), []byte("a\nc\n"), DefaultContext)
	second := Compute("src/main.rs", []byte("x\n"), []byte("y\n"), DefaultContext)
	out, err := Render([]*FileDiff{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"--- a/src/lib.rs", "+++ b/src/lib.rs", "-b", "+c", "--- a/src/main.rs", "+y"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	files, err := Parse(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if Path(files[0]) != "src/lib.rs" || Path(files[1]) != "src/main.rs" {
		t.Fatalf("unexpected paths: %s, %s", Path(files[0]), Path(files[1]))
	}
}

func TestRenderEmpty(t *testing.T) {
	out, err := Render(nil)
	if err != nil || out != "" {
		t.Fatalf("expected empty output, got %q (%v)", out, err)
	}
}

func TestSplitLines(t *testing.T) {
	cases := map[string][]string{
		"":           nil,
		"a":          {"a"},
		"a\n":        {"a"},
		"a\r\nb\r\n": {"a", "b"},
		"a\n\n":      {"a", ""},
	}
	for input, want := range cases {
		if got := SplitLines(input); !reflect.DeepEqual(got, want) {
			t.Fatalf("SplitLines(%q) = %q, want %q", input, got, want)
		}
	}
}
