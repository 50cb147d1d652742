package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/scene"
)

// writeFeed writes a chain of n zone blocks as JSON lines.
func writeFeed(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	parent := chain.ZeroHash
	for i := 1; i <= n; i++ {
		hash := fmt.Sprintf("0x%064x", i)
		fmt.Fprintf(&b, `{"id":%q,"type":"block","hash":%q,"parentHash":%q,"number":%d,"timestamp":%d}`+"\n",
			hash, hash, parent, i, 1700000000+i)
		parent = hash
	}
	path := filepath.Join(t.TempDir(), "feed.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatches(t *testing.T) {
	items := make([]chain.Item, 5)
	for i := range items {
		items[i].ID = fmt.Sprint(i)
	}
	sizes := func(bs [][]chain.Item) []int {
		var out []int
		for _, b := range bs {
			out = append(out, len(b))
		}
		return out
	}

	tests := []struct {
		n    int
		want []int
	}{
		{0, []int{5}},
		{2, []int{2, 2, 1}},
		{5, []int{5}},
		{10, []int{5}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, sizes(batches(items, tt.n))); diff != "" {
			t.Errorf("batches(%d) mismatch (-want +got):\n%s", tt.n, diff)
		}
	}
}

func TestReplayJSON(t *testing.T) {
	feedPath := writeFeed(t, 6)
	out := filepath.Join(t.TempDir(), "scene.json")

	if _, err := execute(t, newTestCLI(), "replay", feedPath, "-o", out, "--batch", "2", "--frames", "5"); err != nil {
		t.Fatalf("replay error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var snap scene.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("output is not a snapshot: %v", err)
	}
	if len(snap.Instances) != 6 {
		t.Errorf("instances = %d, want 6", len(snap.Instances))
	}
	if len(snap.Edges) != 5 {
		t.Errorf("edges = %d, want 5 chain edges", len(snap.Edges))
	}
}

func TestReplayDOT(t *testing.T) {
	feedPath := writeFeed(t, 3)
	out := filepath.Join(t.TempDir(), "scene.dot")

	if _, err := execute(t, newTestCLI(), "replay", feedPath, "--format", "dot", "-o", out, "--theme", "tron"); err != nil {
		t.Fatalf("replay error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph") {
		t.Errorf("unexpected DOT output:\n%s", data)
	}
}

func TestReplayRejectsBadInput(t *testing.T) {
	feedPath := writeFeed(t, 1)
	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"replay", feedPath, "--format", "gif"}},
		{"theme", []string{"replay", feedPath, "--theme", "neon"}},
		{"batch", []string{"replay", feedPath, "--batch", "-1"}},
		{"missing file", []string{"replay", filepath.Join(t.TempDir(), "none.jsonl")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, newTestCLI(), tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
