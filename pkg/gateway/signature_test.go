package gateway

import "testing"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","data":{"id":"ch_1"}}`)
	sig := Sign("whsec", body)

	if !VerifySignature("whsec", body, sig) {
		t.Fatal("expected signature to verify")
	}
	if !VerifySignature("whsec", body, "sha256="+sig) {
		t.Fatal("expected prefixed signature to verify")
	}

	tampered := []byte(`{"id":"evt_1","data":{"id":"ch_2"}}`)
	cases := []struct {
		name   string
		secret string
		body   []byte
		sig    string
	}{
		{"tampered body", "whsec", tampered, sig},
		{"wrong secret", "other", body, sig},
		{"reformatted body", "whsec", []byte(`{"id": "evt_1", "data": {"id": "ch_1"}}`), sig},
		{"not hex", "whsec", body, "zz"},
		{"empty signature", "whsec", body, ""},
		{"empty secret", "", body, Sign("", body)},
	}
	for _, tc := range cases {
		if VerifySignature(tc.secret, tc.body, tc.sig) {
			t.Errorf("%s: expected rejection", tc.name)
		}
	}
}

func TestParseWebhook(t *testing.T) {
	event, chargeID, err := ParseWebhook([]byte(`{"id":"evt_9","event":"charge.updated","data":{"id":"ch_9"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.ID != "evt_9" || chargeID != "ch_9" {
		t.Fatalf("unexpected event %+v charge %q", event, chargeID)
	}

	_, chargeID, err = ParseWebhook([]byte(`{"id":"evt_10","data":{"checkout_id":"chk_1"}}`))
	if err != nil || chargeID != "chk_1" {
		t.Fatalf("expected checkout id fallback, got %q %v", chargeID, err)
	}

	if _, _, err := ParseWebhook([]byte(`{"id":"evt_11","data":{}}`)); err == nil {
		t.Fatal("expected missing charge id to fail")
	}
	if _, _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Fatal("expected invalid json to fail")
	}
}
