package diagnostic

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestParseCargoOutput(t *testing.T) {
	diags, err := Parse(openFixture(t, "cargo_check.jsonl"), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, diags, 2)

	assert.Equal(t, "src/lib.rs", diags[0].File)
	assert.True(t, strings.HasPrefix(diags[0].Message, "error[E0308]: mismatched types"))
	assert.Equal(t, Fingerprint("src/lib.rs", diags[0].Message), diags[0].Fingerprint)

	// The first span wins when a message carries several.
	assert.Equal(t, "src/main.rs", diags[1].File)
}

func TestParseWarningsOnlyIsEmpty(t *testing.T) {
	diags, err := Parse(openFixture(t, "warnings_only.jsonl"), ParseOptions{})
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestParseDropsSpanlessMessagesRegardlessOfLevel(t *testing.T) {
	input := strings.Join([]string{
		`{"reason":"compiler-message","message":{"level":"error","rendered":"error: a\n","spans":[]}}`,
		`{"reason":"compiler-message","message":{"level":"warning","rendered":"warning: b\n","spans":[]}}`,
	}, "\n")
	diags, err := Parse(strings.NewReader(input), ParseOptions{})
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestParseIgnoresOtherReasons(t *testing.T) {
	input := `{"reason":"build-script-executed","message":"not an object"}` + "\n" +
		`{"reason":42}` + "\n" +
		`{}` + "\n"
	diags, err := Parse(strings.NewReader(input), ParseOptions{})
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestParseSkipsBlankLines(t *testing.T) {
	input := "\n   \n" + `{"reason":"compiler-message","message":{"level":"error","rendered":"error: x\n","spans":[{"file_name":"a.rs"}]}}` + "\n\n"
	diags, err := Parse(strings.NewReader(input), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "a.rs", diags[0].File)
}

func TestParseMalformedLineIsFatal(t *testing.T) {
	_, err := Parse(openFixture(t, "malformed.jsonl"), ParseOptions{})
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.True(t, errors.Is(err, ErrMalformedOutput))
}

func TestParseLenientSkipsMalformedLines(t *testing.T) {
	input := "garbage\n" + `{"reason":"compiler-message","message":{"level":"error","rendered":"error: x\n","spans":[{"file_name":"a.rs"}]}}`
	diags, err := Parse(strings.NewReader(input), ParseOptions{Lenient: true})
	require.NoError(t, err)
	assert.Len(t, diags, 1)
}

func TestParseCompilerMessageWithBadShapeIsMalformed(t *testing.T) {
	input := `{"reason":"compiler-message","message":{"level":"error","rendered":"x","spans":"nope"}}`
	_, err := Parse(strings.NewReader(input), ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedOutput))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("src/lib.rs", "error: boom")
	assert.Equal(t, a, Fingerprint("src/lib.rs", "error: boom"))
	assert.NotEqual(t, a, Fingerprint("src/main.rs", "error: boom"))
	assert.NotEqual(t, a, Fingerprint("src/lib.rs", "error: bang"))
	assert.Len(t, a, 64)
}

func TestDedupe(t *testing.T) {
	diags := []Diagnostic{
		New("a.rs", "error: one"),
		New("b.rs", "error: two"),
		New("a.rs", "error: one"),
		New("b.rs", "error: one"),
	}
	out := Dedupe(diags)
	require.Len(t, out, 3)
	assert.Equal(t, "a.rs", out[0].File)
	assert.Equal(t, "b.rs", out[1].File)
	assert.Equal(t, "error: one", out[2].Message)
}
