package utils

import "testing"

func TestSetVerbose(t *testing.T) {
	original := Verbose
	defer SetVerbose(original)

	SetVerbose(false)
	if Verbose {
		t.Error("verbose should be off")
	}
	SetVerbose(true)
	if !Verbose {
		t.Error("verbose should be on")
	}
}

func TestNewSeededRandDeterminism(t *testing.T) {
	a := NewSeededRand(99)
	b := NewSeededRand(99)
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed should produce the same stream")
		}
	}
}
