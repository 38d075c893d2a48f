package task

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeCollection(t *testing.T) {
	data := `[
  {"id": "a", "text": "ok", "completed": false, "priority": "high", "category": "work",
   "subtasks": [], "tags": [], "createdAt": "2024-05-01T09:00:00.000Z", "completedAt": null},
  {"id": "b", "text": "bad priority", "completed": false, "priority": "asap",
   "createdAt": "2024-05-01T09:00:00Z"},
  {"id": "c", "text": "done without timestamp", "completed": true,
   "createdAt": "2024-05-01T09:00:00Z"},
  {"id": "a", "text": "duplicate", "completed": false, "createdAt": "2024-05-01T09:00:00Z"},
  "not an object",
  {"id": "d", "text": "pending with timestamp #x", "completed": false,
   "createdAt": "2024-05-01T09:00:00Z", "completedAt": "2024-05-01T10:00:00Z"}
]`
	res, err := DecodeCollection([]byte(data), testNow)
	if err != nil {
		t.Fatalf("DecodeCollection: %v", err)
	}

	var ids []string
	for _, tk := range res.Tasks {
		ids = append(ids, tk.ID)
		if tk.Completed != (tk.CompletedAt != nil) {
			t.Errorf("task %s breaks completedAt invariant", tk.ID)
		}
	}
	if strings.Join(ids, ",") != "a,c,d" {
		t.Errorf("kept ids: got %v, want a,c,d", ids)
	}
	if len(res.Dropped) != 3 {
		t.Errorf("Dropped: got %d errors (%v), want 3", len(res.Dropped), res.Dropped)
	}
	if strings.Join(res.Repaired, ",") != "c,d" {
		t.Errorf("Repaired: got %v", res.Repaired)
	}

	var ve *ValidationError
	if !errors.As(res.Dropped[0], &ve) || ve.Path != "[1].priority" {
		t.Errorf("first dropped path: got %v", res.Dropped[0])
	}

	d := res.Tasks[2]
	if d.Priority != PriorityMedium || d.Category != DefaultCategory {
		t.Errorf("defaults not filled: %+v", d)
	}
	if len(d.Tags) != 1 || d.Tags[0] != "x" {
		t.Errorf("missing tags not extracted: %v", d.Tags)
	}
}

func TestDecodeCollectionRejectsNonArray(t *testing.T) {
	for _, in := range []string{`{`, `{"tasks": []}`, `"x"`} {
		if _, err := DecodeCollection([]byte(in), testNow); err == nil {
			t.Errorf("DecodeCollection(%s): expected error", in)
		}
	}
}

func TestValidateCreatedTask(t *testing.T) {
	tk, err := New(Draft{Text: "check schema", Date: "2024-05-01", Time: "10:00"}, testNow, &seqIDs{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(tk); err != nil {
		t.Errorf("Validate: %v", err)
	}

	tk.Priority = "nope"
	err = Validate(tk)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Path != "priority" {
		t.Errorf("expected priority error, got %v", err)
	}
}

func TestMarshalShape(t *testing.T) {
	tk, err := New(Draft{Text: "shape"}, testNow, &seqIDs{})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(tk)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if v, ok := m["completedAt"]; !ok || v != nil {
		t.Errorf("completedAt should be present and null, got %v", v)
	}
	if _, ok := m["updatedAt"]; ok {
		t.Error("updatedAt should be omitted until the first edit")
	}
	if _, ok := m["date"]; ok {
		t.Error("empty date should be omitted")
	}
}

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return "id-" + string(rune('a'+s.n-1))
}
