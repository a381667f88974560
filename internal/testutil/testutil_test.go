package testutil

import "testing"

func TestNewTestDSN(t *testing.T) {
	dsn := NewTestDSN("SomeTest")
	expected := "file:SomeTest?mode=memory&cache=shared"
	if dsn != expected {
		t.Errorf("expected %q, got %q", expected, dsn)
	}
}

func TestCleanupTestDB_InMemory(t *testing.T) {
	if err := CleanupTestDB(NewTestDSN("SomeTest")); err != nil {
		t.Errorf("in-memory cleanup must be a no-op, got %v", err)
	}
}

func TestCleanupTestDB_InvalidDSN(t *testing.T) {
	if err := CleanupTestDB("not-a-dsn"); err == nil {
		t.Error("expected an error for a malformed DSN")
	}
}

func TestMakeMAC_Unique(t *testing.T) {
	a := MakeMAC()
	b := MakeMAC()
	if a == b {
		t.Errorf("expected unique MACs, got %q twice", a)
	}
}
