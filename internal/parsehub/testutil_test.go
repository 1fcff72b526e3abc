package parsehub

import (
	"os"
	"testing"
)

func loadFixture(t testing.TB) []byte {
	body, err := os.ReadFile("testdata/snapshot.json")
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func loadSnapshot(t testing.TB) *Snapshot {
	snapshot, err := DecodeSnapshot(loadFixture(t))
	if err != nil {
		t.Fatal(err)
	}
	return snapshot
}

func names(records []Record) []string {
	var result []string
	for _, r := range records {
		result = append(result, r.GetName())
	}
	return result
}

func str(s string) *string {
	return &s
}
