package ltx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse(strings.NewReader(src), "test.ltx")
	require.NoError(t, err)
	return f
}

func TestParse_Basic(t *testing.T) {
	f := parseString(t, `
; weapon definitions
[wpn_ak74]:weapon_base
visual = dynamics\weapons\wpn_ak74\wpn_ak74
cost = 18000
lewd_prefetch_world = nearby

[wpn_ak74_hud]
item_visual = dynamics\weapons\wpn_ak74\wpn_ak74_hud
`)

	require.Equal(t, 2, f.SectionCount())
	require.Equal(t, []string{"wpn_ak74", "wpn_ak74_hud"}, f.SectionNames())

	sec, ok := f.Section("wpn_ak74")
	require.True(t, ok)
	assert.Equal(t, []string{"weapon_base"}, sec.Parents())

	visual, ok := sec.Field("visual")
	require.True(t, ok)
	assert.Equal(t, `dynamics\weapons\wpn_ak74\wpn_ak74`, visual)

	_, ok = sec.Field("no_such_field")
	assert.False(t, ok)
}

func TestParse_MultipleParents(t *testing.T) {
	f := parseString(t, "[child]:base_a, base_b ,base_c\nkey = v\n")

	sec, ok := f.Section("child")
	require.True(t, ok)
	assert.Equal(t, []string{"base_a", "base_b", "base_c"}, sec.Parents())
}

func TestParse_KeyWithoutValue(t *testing.T) {
	f := parseString(t, "[sect]\nbare_flag\nother = 1\n")

	sec, _ := f.Section("sect")
	v, ok := sec.Field("bare_flag")
	require.True(t, ok)
	assert.Equal(t, "", v)
}

func TestParse_Comments(t *testing.T) {
	f := parseString(t, `
[sect] ; trailing comment
a = 1 // slash comment
; full line comment
// another full line
b = 2;tight comment
`)

	sec, _ := f.Section("sect")
	a, _ := sec.Field("a")
	b, _ := sec.Field("b")
	assert.Equal(t, "1", a)
	assert.Equal(t, "2", b)
	assert.Equal(t, 2, sec.FieldCount())
}

func TestParse_QuotedValueProtectsCommentMarkers(t *testing.T) {
	f := parseString(t, `
[sect]
note = "semicolons; and // slashes stay"
`)

	sec, _ := f.Section("sect")
	v, _ := sec.Field("note")
	assert.Equal(t, "semicolons; and // slashes stay", v)
}

func TestParse_DuplicateKeyLastWins(t *testing.T) {
	f := parseString(t, "[sect]\nkey = first\nkey = second\n")

	sec, _ := f.Section("sect")
	v, _ := sec.Field("key")
	assert.Equal(t, "second", v)
	assert.Equal(t, []string{"key"}, sec.FieldNames())
}

func TestParse_FieldOrderPreserved(t *testing.T) {
	f := parseString(t, "[sect]\nzeta = 1\nalpha = 2\nmid = 3\n")

	sec, _ := f.Section("sect")
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, sec.FieldNames())
}

func TestParse_BOMStripped(t *testing.T) {
	f := parseString(t, "\ufeff[sect]\nkey = v\n")

	_, ok := f.Section("sect")
	assert.True(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "duplicate section",
			src:     "[sect]\n[sect]\n",
			wantErr: "duplicate section",
		},
		{
			name:    "field outside section",
			src:     "key = value\n",
			wantErr: "outside of any section",
		},
		{
			name:    "unterminated header",
			src:     "[sect\n",
			wantErr: "unterminated section header",
		},
		{
			name:    "empty section name",
			src:     "[]\n",
			wantErr: "empty section name",
		},
		{
			name:    "trailing junk after header",
			src:     "[sect] extra\n",
			wantErr: "unexpected trailing text",
		},
		{
			name:    "malformed include",
			src:     "#include no_quotes.ltx\n",
			wantErr: "malformed #include",
		},
		{
			name:    "empty field key",
			src:     "[sect]\n= value\n",
			wantErr: "empty field key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src), "bad.ltx")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func writeLtx(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile_Includes(t *testing.T) {
	dir := t.TempDir()
	writeLtx(t, dir, "weapons/ak.ltx", "[wpn_ak74]\nvisual = a\n")
	writeLtx(t, dir, "weapons/pm.ltx", "[wpn_pm]\nvisual = b\n")
	root := writeLtx(t, dir, "system.ltx", `
#include "weapons\ak.ltx"
#include "weapons/pm.ltx"

[actor]
hp = 100
`)

	f, err := ParseFile(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"wpn_ak74", "wpn_pm", "actor"}, f.SectionNames())
}

func TestParseFile_IncludeDoesNotLeakSectionContext(t *testing.T) {
	dir := t.TempDir()
	writeLtx(t, dir, "inc.ltx", "[included]\nk = v\n")
	root := writeLtx(t, dir, "root.ltx", `
[before]
a = 1
#include "inc.ltx"
b = 2
`)

	f, err := ParseFile(root)
	require.NoError(t, err)

	before, _ := f.Section("before")
	b, ok := before.Field("b")
	require.True(t, ok, "field after include must land in the section opened before it")
	assert.Equal(t, "2", b)

	included, _ := f.Section("included")
	_, ok = included.Field("b")
	assert.False(t, ok)
}

func TestParseFile_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeLtx(t, dir, "a.ltx", "#include \"b.ltx\"\n")
	pathA := filepath.Join(dir, "a.ltx")
	writeLtx(t, dir, "b.ltx", "#include \"a.ltx\"\n")

	_, err := ParseFile(pathA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestParseFile_MissingInclude(t *testing.T) {
	dir := t.TempDir()
	root := writeLtx(t, dir, "root.ltx", "#include \"gone.ltx\"\n")

	_, err := ParseFile(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening ltx file")
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.ltx"))
	require.Error(t, err)
}
