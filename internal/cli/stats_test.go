package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nirvanameow/seedsweep/internal/store"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sweep.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, p := range []string{"a b", "c d", "e f"} {
		if _, err := st.AppendTried(ctx, store.TriedRecord{
			Phrase: p, Address: "addr:" + p, RunID: "run-1",
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.AppendFound(ctx, store.FoundRecord{
		Address: "addr:c d", Phrase: "c d", Lamports: 9, RunID: "run-1",
	}); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStats_Text(t *testing.T) {
	out, err := execute(t, "stats", "--db", seedDatabase(t))
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if got := strings.TrimSpace(out); got != "tried=3 found=1 last_seq=3" {
		t.Errorf("output = %q", got)
	}
}

func TestStats_JSON(t *testing.T) {
	out, err := execute(t, "stats", "--db", seedDatabase(t), "--format", "json")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	var envelope struct {
		Status string      `json:"status"`
		Data   statsReport `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &envelope); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if envelope.Status != "ok" {
		t.Errorf("status = %q, want ok", envelope.Status)
	}
	if envelope.Data.Tried != 3 || envelope.Data.Found != 1 || envelope.Data.LastSeq != 3 {
		t.Errorf("data = %+v", envelope.Data)
	}
}

func TestStats_MissingDatabaseFlag(t *testing.T) {
	if _, err := execute(t, "stats"); err == nil {
		t.Fatal("stats accepted a missing --db flag")
	}
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "stats", "--db", seedDatabase(t), "--format", "xml")
	if err == nil {
		t.Fatal("root command accepted an unknown output format")
	}
	if !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("error = %v, want invalid format message", err)
	}
}
