package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/logger"
)

const foundationHeader = "/sdk/Foundation.framework/Headers/NSObject.h"

// inTempDir runs the test from an empty directory so no metagen.yml leaks in
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(oldWd)
		logger.Use(zap.NewNop())
	})
	return dir
}

func writeUnit(t *testing.T, dir string) string {
	t.Helper()
	id := &decl.RawType{Class: decl.ClassObjCObject, Object: decl.ObjectID}
	unit, err := decl.NewUnit(
		[]decl.Header{{Path: "/sdk/Foundation.framework/Headers/", Module: "Foundation"}},
		&decl.Decl{ID: "NSObject", Kind: decl.KindInterface, Name: "NSObject", File: foundationHeader,
			Methods: []*decl.Decl{
				{Kind: decl.KindMethod, Name: "init", ReturnType: id},
				{Kind: decl.KindMethod, Name: "alloc", Static: true, ReturnType: id},
			}},
		&decl.Decl{ID: "NSLog", Kind: decl.KindFunction, Name: "NSLog", File: foundationHeader, Variadic: true,
			ReturnType: &decl.RawType{Class: decl.ClassBuiltin, Builtin: decl.BuiltinVoid}},
		&decl.Decl{ID: "simd", Kind: decl.KindVar, Name: "simd", File: foundationHeader,
			Type: &decl.RawType{Class: decl.ClassVector}},
	)
	require.NoError(t, err)
	data, err := unit.Encode()
	require.NoError(t, err)

	path := filepath.Join(dir, "unit.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "metagen", cmd.Use)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, expected := range []string{"version", "generate", "inspect", "index", "completion"} {
		assert.Contains(t, names, expected)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	defer func() { Version = "dev" }()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.0.0-test")
	assert.Contains(t, out, "Blob format: 1")
}

func TestGenerateInspectIndex(t *testing.T) {
	dir := inTempDir(t)
	unitPath := writeUnit(t, dir)
	db := filepath.Join(dir, "index.db")

	out, err := execute(t, "generate", unitPath, "-o", "out", "--no-cache", "--index", db)
	require.NoError(t, err)
	assert.Contains(t, out, "1 skipped declaration(s)")
	assert.Contains(t, out, "Wrote "+filepath.Join("out", "metadata.bin"))

	blob := filepath.Join("out", "metadata.bin")
	require.FileExists(t, blob)
	defs, err := os.ReadFile(filepath.Join("out", "typings", "Foundation.d.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(defs), "declare class NSObject {")

	out, err = execute(t, "inspect", blob, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Pointer size:")
	assert.Contains(t, out, "NSLog")

	out, err = execute(t, "inspect", blob, "NSObject", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Foundation.NSObject")
	assert.Contains(t, out, "alloc")

	out, err = execute(t, "inspect", blob, "NSObjct", "--no-color")
	require.Error(t, err)
	assert.Contains(t, out, "Did you mean: NSObject?")

	out, err = execute(t, "index", "--db", db, "NSObject", "--members", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "interface")
	assert.Contains(t, out, "static")

	out, err = execute(t, "index", "--db", db, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Declarations:")

	_, err = execute(t, "index", "--db", db, "NSLg", "--no-color")
	assert.Error(t, err)
}

func TestGenerate_JSONReport(t *testing.T) {
	dir := inTempDir(t)
	unitPath := writeUnit(t, dir)

	out, err := execute(t, "generate", unitPath, "--json", "--no-cache", "--no-typescript")
	require.NoError(t, err)

	var report struct {
		Status   string `json:"status"`
		RunID    string `json:"run_id"`
		Warnings []struct {
			Code string `json:"code"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "warning", report.Status)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "E200", report.Warnings[0].Code)

	assert.FileExists(t, filepath.Join("build", "metadata", "metadata.bin"))
	assert.NoDirExists(t, filepath.Join("build", "metadata", "typings"))
}

func TestGenerate_Cache(t *testing.T) {
	dir := inTempDir(t)
	unitPath := writeUnit(t, dir)

	_, err := execute(t, "generate", unitPath)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(".metagen", "cache", "blobs"))

	out, err := execute(t, "generate", unitPath, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "served from cache")
	assert.Contains(t, out, "1 skipped declaration(s)")
	assert.Contains(t, out, "E200")

	out, err = execute(t, "generate", unitPath, "--json")
	require.NoError(t, err)
	var report struct {
		Status   string `json:"status"`
		Warnings []struct {
			Code string `json:"code"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "warning", report.Status)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "E200", report.Warnings[0].Code)
}

func TestGenerate_Errors(t *testing.T) {
	dir := inTempDir(t)

	_, err := execute(t, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no declaration unit given")

	unitPath := writeUnit(t, dir)
	_, err = execute(t, "generate", unitPath, "--pointer-size", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pointer size")

	require.NoError(t, os.WriteFile("metagen.yml", []byte("binary:\n  array_count_size: 0\n"), 0o644))
	out, err := execute(t, "generate", unitPath)
	require.Error(t, err)
	assert.Contains(t, out, "CONFIGURATION ERROR")
}

func TestInspect_InvalidInput(t *testing.T) {
	dir := inTempDir(t)
	bad := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(bad, []byte{9, 4, 4}, 0o644))

	_, err := execute(t, "inspect", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid blob")

	_, err = execute(t, "inspect", bad, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestIndex_NotConfigured(t *testing.T) {
	inTempDir(t)
	_, err := execute(t, "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbol index configured")
}

func TestFormatFlags(t *testing.T) {
	assert.Equal(t, "-", formatFlags(0))
	assert.Equal(t, "variadic,owns-returned", formatFlags(3))
}

func TestCompletion(t *testing.T) {
	dir := inTempDir(t)
	unitPath := writeUnit(t, dir)
	_, err := execute(t, "generate", unitPath, "-o", "out", "--no-cache")
	require.NoError(t, err)
	blob := filepath.Join("out", "metadata.bin")

	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "metagen")

	out, err = execute(t, "__complete", "inspect", blob, "NSO")
	require.NoError(t, err)
	assert.Contains(t, out, "NSObject")
	assert.NotContains(t, out, "NSLog")

	out, err = execute(t, "__complete", "inspect", blob, "--module", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Foundation")

	out, err = execute(t, "__complete", "inspect", blob, "--format", "")
	require.NoError(t, err)
	assert.Contains(t, out, "json")
	assert.Contains(t, out, "table")

	out, err = execute(t, "__complete", "generate", "--pointer-size", "")
	require.NoError(t, err)
	assert.Contains(t, out, "8")

	out, err = execute(t, "__complete", "inspect", "missing.bin", "NS")
	require.NoError(t, err)
	assert.NotContains(t, out, "NSObject")
}
