package pipeline

import (
	"reflect"
	"testing"
)

func TestOrderKeysNumeric(t *testing.T) {
	keys := []string{"segment10", "segment2", "segment1"}
	got := OrderKeys(keys)
	want := []string{"segment1", "segment2", "segment10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderKeys(%v) = %v, want %v", keys, got, want)
	}
}

func TestOrderKeysNoDigits(t *testing.T) {
	keys := []string{"segment2", "intro", "segment1"}
	got := OrderKeys(keys)
	// Keys without digits sort as index 0, ahead of everything numbered.
	want := []string{"intro", "segment1", "segment2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderKeys(%v) = %v, want %v", keys, got, want)
	}
}

func TestOrderKeysTiesByString(t *testing.T) {
	keys := []string{"b1", "a1", "c1"}
	got := OrderKeys(keys)
	want := []string{"a1", "b1", "c1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderKeys(%v) = %v, want %v", keys, got, want)
	}
}

func TestOrderKeysDoesNotMutateInput(t *testing.T) {
	keys := []string{"segment3", "segment1", "segment2"}
	OrderKeys(keys)
	if !reflect.DeepEqual(keys, []string{"segment3", "segment1", "segment2"}) {
		t.Errorf("input slice was mutated: %v", keys)
	}
}

func TestKeyIndexFirstNumberWins(t *testing.T) {
	if got := keyIndex("part2of3"); got != 2 {
		t.Errorf("keyIndex(part2of3) = %d, want 2", got)
	}
	if got := keyIndex("closing"); got != 0 {
		t.Errorf("keyIndex(closing) = %d, want 0", got)
	}
}
