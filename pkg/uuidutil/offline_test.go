package uuidutil

import "testing"

func TestOfflineIsDeterministic(t *testing.T) {
	a := Offline("Alice")
	b := Offline("Alice")
	if a != b {
		t.Fatalf("expected deterministic uuid, got %s vs %s", a, b)
	}
}

func TestOfflineDiffersByName(t *testing.T) {
	if Offline("Alice") == Offline("Bob") {
		t.Fatal("expected distinct usernames to hash to distinct uuids")
	}
}

func TestOfflineVersionAndVariant(t *testing.T) {
	id := Offline("Notch")
	if id.Version() != 3 {
		t.Fatalf("expected version 3, got %d", id.Version())
	}
	if id.Variant().String() != "RFC4122" {
		t.Fatalf("expected RFC4122 variant, got %s", id.Variant())
	}
}

// Known-answer test, pinned against an independently computed MD5 digest
// of "OfflinePlayer:Notch" with version/variant bits applied.
func TestOfflineKnownAnswer(t *testing.T) {
	id := Offline("Notch")
	want := "b50ad385-829d-3141-a216-7e7d7539ba7f"
	if id.String() != want {
		t.Fatalf("Offline(%q) = %s, want %s", "Notch", id.String(), want)
	}
}
