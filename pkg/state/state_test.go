package state

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStateMetadataAndContext(t *testing.T) {
	st := New()

	st.SetMetadata("agent_id", "agent-1234abcd")
	st.SetMetadata("agent_type", "main-agent")
	if v, ok := st.Metadata("agent_id"); !ok || v != "agent-1234abcd" {
		t.Fatalf("unexpected metadata: %v %v", v, ok)
	}
	if _, ok := st.Metadata("missing"); ok {
		t.Fatalf("expected missing metadata key")
	}

	st.SetContext("topic", "golang")
	if v, ok := st.Context("topic"); !ok || v != "golang" {
		t.Fatalf("unexpected context: %v %v", v, ok)
	}
}

func TestStateInitFilesMerges(t *testing.T) {
	st := NewWithFiles(map[string]string{"seed.txt": "original"})
	st.InitFiles(map[string]string{
		"seed.txt":  "replaced",
		"extra.txt": "new",
	})

	if content, _ := st.Files().Get("seed.txt"); content != "replaced" {
		t.Fatalf("init did not merge over existing entry: %q", content)
	}
	if content, _ := st.Files().Get("extra.txt"); content != "new" {
		t.Fatalf("init did not add new entry: %q", content)
	}
}

func TestStateSnapshot(t *testing.T) {
	st := NewWithFiles(map[string]string{"a.txt": "hello"})
	st.Todos().WriteAll([]Todo{{Content: "x", Status: StatusPending, ID: "1"}})
	st.SetMetadata("agent_id", "agent-ffffffff")
	st.SetContext("k", "v")

	snap := st.Snapshot()
	if snap.Files["a.txt"] != "hello" {
		t.Fatalf("unexpected snapshot files: %+v", snap.Files)
	}
	if len(snap.Todos) != 1 || snap.Todos[0].ID != "1" {
		t.Fatalf("unexpected snapshot todos: %+v", snap.Todos)
	}
	if snap.Metadata["agent_id"] != "agent-ffffffff" || snap.Context["k"] != "v" {
		t.Fatalf("unexpected snapshot maps: %+v %+v", snap.Metadata, snap.Context)
	}

	// deep copy: mutating the snapshot leaves the state untouched
	snap.Files["a.txt"] = "tampered"
	snap.Metadata["agent_id"] = "tampered"
	if content, _ := st.Files().Get("a.txt"); content != "hello" {
		t.Fatalf("snapshot leaked file map: %q", content)
	}
	if v, _ := st.Metadata("agent_id"); v != "agent-ffffffff" {
		t.Fatalf("snapshot leaked metadata map: %v", v)
	}
}

func TestStateSnapshotDeepCopiesNestedValues(t *testing.T) {
	st := New()
	st.SetContext("run", map[string]any{
		"tags":  []any{"draft"},
		"owner": map[string]any{"id": "agent-1"},
	})

	snap := st.Snapshot()
	nested := snap.Context["run"].(map[string]any)
	nested["owner"].(map[string]any)["id"] = "tampered"
	nested["tags"].([]any)[0] = "tampered"

	live, _ := st.Context("run")
	run := live.(map[string]any)
	if got := run["owner"].(map[string]any)["id"]; got != "agent-1" {
		t.Fatalf("snapshot leaked nested map: %v", got)
	}
	if got := run["tags"].([]any)[0]; got != "draft" {
		t.Fatalf("snapshot leaked nested slice: %v", got)
	}
}

func TestStateSnapshotSerializes(t *testing.T) {
	st := New()
	snap := st.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	for _, key := range []string{`"files"`, `"todos"`, `"metadata"`, `"context"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("snapshot json missing %s: %s", key, data)
		}
	}
	// empty snapshot renders todos as an empty array, not null
	if strings.Contains(string(data), `"todos":null`) {
		t.Fatalf("todos serialized as null: %s", data)
	}
}

func TestStateSharedReferenceVisibility(t *testing.T) {
	st := New()

	// a delegated writer mutates the same store the parent reads
	writer := func(s *State) {
		s.Files().Write("notes.md", "from sub-agent")
	}
	writer(st)

	if content, ok := st.Files().Get("notes.md"); !ok || content != "from sub-agent" {
		t.Fatalf("shared mutation not visible: %q %v", content, ok)
	}
}
