package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "Module", "Name", "Kind")
	table.AddRow("Foundation", "NSString", "interface")
	table.AddRow("ObjectiveC.NSObject", "NSObject", "interface")
	table.Render()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Module               Name      Kind",
		"───────────────────  ────────  ─────────",
		"Foundation           NSString  interface",
		"ObjectiveC.NSObject  NSObject  interface",
	}, lines)
	assert.Equal(t, 2, table.Len())
}

func TestTable_WideCharacters(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "Name", "Kind")
	table.AddRow("名前", "x")
	table.Render()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Name  Kind",
		"────  ────",
		"名前  x",
	}, lines)
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	assert.Empty(t, buf.String())
}

func TestTable_ExtraCellsIgnored(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "A")
	table.AddRow("x", "ignored")
	table.Render()
	assert.NotContains(t, buf.String(), "ignored")
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Version", "1")
	kv.AddRow("Pointer size", "4")
	kv.Render()

	assert.Equal(t, "Version:      1\nPointer size: 4\n", buf.String())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Foundation", true)
	assert.Equal(t, "Foundation\n──────────\n", buf.String())
}
