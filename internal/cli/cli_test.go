package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

const animalsTOML = `sequences = [["w", "e"]]

[[items]]
key = "w"
token = "W"
label = "Word"

[[items]]
key = "e"
token = "E"
label = "Example"
`

type workspace struct {
	t    *testing.T
	root string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	root := t.TempDir()
	ws := &workspace{t: t, root: root}
	cfg := "backend: sqlite\nexport:\n  dir: " + filepath.Join(root, "out") + "\n"
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cfg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cfg", "config.yaml"), []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "animals.toml"), []byte(animalsTOML), 0o644))
	return ws
}

// run executes entryface with the workspace's directories and reason.
func (ws *workspace) run(args ...string) (int, string, string) {
	ws.t.Helper()
	full := append([]string{
		"--config-dir", filepath.Join(ws.root, "cfg"),
		"--data-dir", filepath.Join(ws.root, "data"),
		"--reason", "animals",
	}, args...)
	var out, errOut bytes.Buffer
	code := Run(full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (ws *workspace) ok(args ...string) string {
	ws.t.Helper()
	code, out, errOut := ws.run(args...)
	require.Equal(ws.t, exitSuccess, code, "args %v: stderr %s", args, errOut)
	return out
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"version"}, &out, &bytes.Buffer{})
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out.String(), "entryface v"+Version)
}

func TestInitCreatesDirectories(t *testing.T) {
	ws := newWorkspace(t)
	out := ws.ok("init")
	assert.Contains(t, out, "entryface initialized successfully")
	assert.FileExists(t, filepath.Join(ws.root, "data", "entryface.db"))
}

func TestComposeWorkflow(t *testing.T) {
	ws := newWorkspace(t)
	ws.ok("catalog", "import", filepath.Join(ws.root, "animals.toml"))

	var seqs []seqSummary
	require.NoError(t, json.Unmarshal([]byte(ws.ok("--json", "seq", "list")), &seqs))
	require.Len(t, seqs, 1)
	assert.Equal(t, "w|e", seqs[0].SeqKey)
	assert.Equal(t, "Word → Example", seqs[0].Title)
	assert.Equal(t, 1, seqs[0].Blocks)

	ws.ok("set", "1", "1", "0", "cat")
	ws.ok("set", "w|e", "1", "1", "meow")
	ws.ok("exclude", "1", "1", "0")
	ws.ok("dec", "add", "1", "1", "1")
	ws.ok("set", "1", "1", "2", "purr")

	var pairs []types.Pair
	require.NoError(t, json.Unmarshal([]byte(ws.ok("--json", "preview", "1")), &pairs))
	assert.Equal(t, []types.Pair{
		{ID: "cat-E-1", Value: "meow"},
		{ID: "cat-E-2", Value: "purr"},
	}, pairs)

	out := ws.ok("export", "1")
	assert.Contains(t, out, "animals-entry.csv")
	data, err := os.ReadFile(filepath.Join(ws.root, "out", "animals-entry.csv"))
	require.NoError(t, err)
	assert.Equal(t, "identifiercode,output value\n\"cat-E-1\",\"meow\"\n\"cat-E-2\",\"purr\"", string(data))

	ws.ok("export", "1", "--format", "xls")
	assert.FileExists(t, filepath.Join(ws.root, "out", "animals-entry.xls"))

	compose := ws.ok("compose")
	assert.Equal(t, "Word → Example — Block 1: cat; meow; purr\n", compose)
}

func TestBlockCommands(t *testing.T) {
	ws := newWorkspace(t)
	ws.ok("catalog", "import", filepath.Join(ws.root, "animals.toml"))
	ws.ok("exclude", "1", "1", "1")
	assert.Contains(t, ws.ok("block", "add", "1"), "Added block 2")
	assert.Contains(t, ws.ok("block", "copy", "1", "2"), "Copied block 2 to block 3")
	ws.ok("block", "delete", "1", "1")

	var view struct {
		Blocks []blockView `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(ws.ok("--json", "block", "show", "1")), &view))
	require.Len(t, view.Blocks, 2)
	for i, b := range view.Blocks {
		assert.Equal(t, i+1, b.Block)
		assert.True(t, b.Rows[1].Excluded, "exclusion inherited from block 1")
	}
	assert.Equal(t, "W-E-1", view.Blocks[0].Rows[1].ID)

	n := ws.ok("column", "fill", "1", "0", "dog")
	assert.Contains(t, n, "Updated 2 row(s)")
	ws.ok("column", "clear", "1", "0")
}

func TestSaveLocalOnlyQueues(t *testing.T) {
	ws := newWorkspace(t)
	ws.ok("catalog", "import", filepath.Join(ws.root, "animals.toml"))
	ws.ok("set", "1", "1", "0", "cat")

	out := ws.ok("save", "1")
	assert.Contains(t, out, "Saved locally.")
	assert.FileExists(t, filepath.Join(ws.root, "out", "animals-entry-saved.xls"))

	var batches []types.Batch
	require.NoError(t, json.Unmarshal([]byte(ws.ok("--json", "queue", "list")), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, "animals", batches[0].Reason)
	assert.Equal(t, "cat", batches[0].Rows[0].IdentifierCode)

	dump := filepath.Join(ws.root, "queue.jsonl")
	ws.ok("queue", "dump", dump)
	ws.ok("queue", "clear")
	assert.Contains(t, ws.ok("queue", "list"), "Queue is empty.")
	assert.Contains(t, ws.ok("queue", "import", dump), "Imported 1 batch(es)")
}

func TestSaveNothing(t *testing.T) {
	ws := newWorkspace(t)
	ws.ok("catalog", "import", filepath.Join(ws.root, "animals.toml"))
	assert.Contains(t, ws.ok("save", "1"), "Nothing to save.")
}

func TestExitCodes(t *testing.T) {
	ws := newWorkspace(t)
	ws.ok("catalog", "import", filepath.Join(ws.root, "animals.toml"))

	cases := [][]string{
		{"block", "show", "9"},
		{"block", "delete", "1", "7"},
		{"set", "1", "1", "5", "x"},
		{"set", "1", "one", "0", "x"},
		{"export", "1", "--format", "pdf"},
		{"catalog", "import", filepath.Join(ws.root, "missing.yaml")},
	}
	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			code, _, errOut := ws.run(args...)
			assert.Equal(t, exitUserError, code)
			assert.Contains(t, errOut, "entryface:")
		})
	}
}

func TestInvalidConfigIsSystemError(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws.root, "cfg", "config.yaml"), []byte("backend: nosuch\n"), 0o644))
	code, _, _ := ws.run("seq", "list")
	assert.Equal(t, exitSysError, code)
}
