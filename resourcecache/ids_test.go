package resourcecache

import "testing"

func TestExtractID(t *testing.T) {
	type withID struct{ ID string }
	type withId struct{ Id string }
	type without struct{ Name string }

	if got := extractID(withID{ID: "p1"}); got != "p1" {
		t.Errorf("extractID(withID) = %q, want p1", got)
	}
	if got := extractID(withId{Id: "p2"}); got != "p2" {
		t.Errorf("extractID(withId) = %q, want p2", got)
	}
	if got := extractID(without{Name: "x"}); got != "" {
		t.Errorf("extractID(without) = %q, want empty", got)
	}
	if got := extractID(&withID{ID: "p3"}); got != "p3" {
		t.Errorf("extractID(pointer) = %q, want p3", got)
	}
	if got := extractID[*withID](nil); got != "" {
		t.Errorf("extractID(nil pointer) = %q, want empty", got)
	}
	if got := extractID("not a struct"); got != "" {
		t.Errorf("extractID(string) = %q, want empty", got)
	}
}

func TestSetID(t *testing.T) {
	type withID struct{ ID string }
	type numeric struct{ ID int }

	set, ok := setID(withID{}, "p9")
	if !ok || set.ID != "p9" {
		t.Errorf("setID = (%+v, %v), want id p9", set, ok)
	}

	if _, ok := setID(numeric{}, "p9"); ok {
		t.Error("setID must refuse a non-string id field")
	}
	if _, ok := setID("not a struct", "p9"); ok {
		t.Error("setID must refuse a non-struct")
	}
}
