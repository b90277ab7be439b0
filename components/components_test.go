package components

import (
	"errors"
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}

	if k, err := ParseKind(" Rabbit "); err != nil || k != KindRabbit {
		t.Errorf("ParseKind should be case-insensitive, got %v, %v", k, err)
	}

	_, err := ParseKind("wolf")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestKindLayer(t *testing.T) {
	testCases := []struct {
		kind  Kind
		layer Layer
		agent bool
	}{
		{KindCell, LayerCell, false},
		{KindGrass, LayerGround, false},
		{KindRabbit, LayerOther, true},
		{KindFox, LayerOther, true},
	}
	for _, tc := range testCases {
		if tc.kind.Layer() != tc.layer {
			t.Errorf("%v.Layer() = %d, want %d", tc.kind, tc.kind.Layer(), tc.layer)
		}
		if tc.kind.IsAgent() != tc.agent {
			t.Errorf("%v.IsAgent() = %v", tc.kind, tc.kind.IsAgent())
		}
	}
}

func TestTimer(t *testing.T) {
	timer := Timer{Duration: 0.5}
	if timer.Tick(0.2) {
		t.Error("timer finished after 0.2s of 0.5s")
	}
	if !timer.Tick(0.3) {
		t.Error("timer not finished after 0.5s")
	}
	timer.Reset()
	if timer.Finished() {
		t.Error("timer finished right after reset")
	}

	ready := NewReadyTimer(0.5)
	if !ready.Tick(0) {
		t.Error("ready timer should finish on first tick")
	}
}

func TestEdibleReservation(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap1[Identity](w)
	a := mapper.NewEntity(&Identity{ID: 1, Kind: KindRabbit})
	b := mapper.NewEntity(&Identity{ID: 2, Kind: KindRabbit})

	var ed Edible
	if !ed.Reserve(a) {
		t.Fatal("first reservation failed")
	}
	if ed.Reserve(b) {
		t.Fatal("second agent took a held reservation")
	}
	if !ed.IsReservedBy(a) || ed.IsReservedBy(b) {
		t.Fatal("reservation holder mismatch")
	}

	// Release by a non-holder is ignored.
	ed.Release(b)
	if !ed.IsReservedBy(a) {
		t.Fatal("non-holder cleared the reservation")
	}

	ed.Release(a)
	if ed.Reserved {
		t.Fatal("reservation still held after release")
	}
	if !ed.Reserve(b) {
		t.Fatal("reserve after release failed")
	}
}

func TestAgentClearTarget(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap1[Identity](w)
	food := mapper.NewEntity(&Identity{ID: 1, Kind: KindGrass})

	var a Agent
	a.SetTarget(food, a.TargetCell)
	if !a.HasTarget || a.Target != food {
		t.Fatal("target not set")
	}
	a.ClearTarget()
	if a.HasTarget {
		t.Fatal("target still held")
	}
}
