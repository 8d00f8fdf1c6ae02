package utils

import (
	"reflect"
	"testing"
)

type tagged struct {
	ID      string  `db:"id"`
	Name    string  `db:"name"`
	Skipped string  `db:"-"`
	NoTag   string  ``
	Note    *string `db:"note"`
}

func TestStructTagValues(t *testing.T) {
	got := StructTagValues(tagged{})
	want := []string{"id", "name", "note"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestStructToMap(t *testing.T) {
	note := "hello"
	m := StructToMap(&tagged{ID: "abc", Name: "thing", Skipped: "nope", Note: &note})

	if m["id"] != "abc" || m["name"] != "thing" {
		t.Errorf("unexpected map %v", m)
	}
	if _, ok := m["-"]; ok {
		t.Error("skipped fields must not appear")
	}
	if _, ok := m["Skipped"]; ok {
		t.Error("skipped fields must not appear under their field name")
	}
}

func TestNanoID(t *testing.T) {
	a := NanoID()
	b := NanoID()

	if len(a) != NanoidSize {
		t.Errorf("expected length %d, got %d", NanoidSize, len(a))
	}
	if a == b {
		t.Error("ids must be unique")
	}

	if len(NanoIDSize(8)) != 8 {
		t.Error("expected custom size to be honored")
	}
}
