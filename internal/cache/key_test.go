package cache

import "testing"

func TestKey_ArgumentOrderIrrelevant(t *testing.T) {
	a := map[string]any{"x": 3, "y": "hello", "z": []any{1, 2}}
	b := map[string]any{"z": []any{1, 2}, "y": "hello", "x": 3}
	if Key("double", a) != Key("double", b) {
		t.Fatal("same arguments keyed differently")
	}
}

func TestKey_ToolNameDistinguishes(t *testing.T) {
	args := map[string]any{"x": 1}
	if Key("double", args) == Key("triple", args) {
		t.Fatal("different tools collided on identical arguments")
	}
}

func TestKey_ArgumentValuesDistinguish(t *testing.T) {
	if Key("double", map[string]any{"x": 1}) == Key("double", map[string]any{"x": 2}) {
		t.Fatal("different arguments collided")
	}
}

func TestKey_NilArgs(t *testing.T) {
	k1 := Key("echo", nil)
	k2 := Key("echo", nil)
	if k1 != k2 {
		t.Fatal("nil args keyed non-deterministically")
	}
	if len(k1) != 64 {
		t.Fatalf("expected hex sha256 digest, got %q", k1)
	}
}

func TestKey_UnserializableArgsStillDeterministic(t *testing.T) {
	ch := make(chan int)
	a := map[string]any{"c": ch}
	if Key("weird", a) != Key("weird", a) {
		t.Fatal("fallback keying is not deterministic")
	}
}
