package job

import (
	"runtime"
	"testing"
)

func TestGuardBrokenAfterCollection(t *testing.T) {
	type widget struct{ id int }
	w := &widget{id: 1}
	g := NewGuard(w)

	if g.Broken() {
		t.Fatal("guard must not be broken while referent is alive")
	}

	w = nil
	runtime.GC()
	runtime.GC()

	if !g.Broken() {
		t.Fatal("guard must report broken once referent is collected")
	}
}

func TestGuardListAnyBroken(t *testing.T) {
	type widget struct{ id int }
	alive := &widget{id: 1}
	gl := guardList{NewGuard(alive)}

	if gl.anyBroken() {
		t.Fatal("expected no broken guards")
	}
}
