package ota

import "testing"

func TestParseManifestAssignsRolloutIDWhenMissing(t *testing.T) {
	payload := []byte(`{"version":4,"url":"https://updates.example/fw.bin","sha256":"aa","min_rssi":-80}`)
	m, err := ParseManifest(payload)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.RolloutID == "" {
		t.Fatal("expected a generated rollout id")
	}
}

func TestParseManifestKeepsGivenRolloutID(t *testing.T) {
	payload := []byte(`{"version":4,"url":"https://updates.example/fw.bin","sha256":"aa","rollout_id":"canary-1"}`)
	m, err := ParseManifest(payload)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.RolloutID != "canary-1" {
		t.Fatalf("RolloutID = %q, want %q", m.RolloutID, "canary-1")
	}
}

func TestParseManifestRejectsMissingFields(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"url":"https://x","sha256":"aa"}`),
		[]byte(`{"version":4,"sha256":"aa"}`),
		[]byte(`{"version":4,"url":"https://x"}`),
		[]byte(`not json`),
	}
	for _, payload := range cases {
		if _, err := ParseManifest(payload); err == nil {
			t.Fatalf("expected error for payload %q", payload)
		}
	}
}
