package export

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []types.Pair{
		{ID: "cat-E-1", Value: "meow"},
		{ID: "cat-E-2", Value: `say "purr", softly`},
	}))

	want := "identifiercode,output value\n" +
		`"cat-E-1","meow"` + "\n" +
		`"cat-E-2","say ""purr"", softly"`
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "identifiercode,output value", buf.String())
}

func TestWriteSpreadsheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSpreadsheet(&buf, []types.Pair{
		{ID: "cat-E-1", Value: "meow"},
		{ID: "a<b", Value: "x & y"},
	}))

	out := buf.String()
	assert.Contains(t, out, "<th>identifiercode</th><th>output value</th>")
	assert.Contains(t, out, "<tr><td>cat-E-1</td><td>meow</td></tr>")
	assert.Contains(t, out, "<td>a&lt;b</td><td>x &amp; y</td>")

	first := strings.Index(out, "cat-E-1")
	second := strings.Index(out, "a&lt;b")
	assert.Less(t, first, second, "rows keep pair order")
}

func TestDirWritesArtifacts(t *testing.T) {
	d := Dir{Path: t.TempDir() + "/nested"}
	pairs := []types.Pair{{ID: "cat-E-1", Value: "meow"}}

	csvPath, err := d.WriteCSV(CSVName("animals"), pairs)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(csvPath, "animals-entry.csv"))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cat-E-1","meow"`)

	xlsPath, err := d.WriteSpreadsheet(SavedName("animals"), pairs)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(xlsPath, "animals-entry-saved.xls"))

	entries, err := os.ReadDir(d.Path)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}
