package callback

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewSuccess_PayloadShape(t *testing.T) {
	payload := NewSuccess("https://cdn.pikapikapika.io/v1/files/abc123/a_red_bicycle_on_a_hill.mp4")

	got, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"data":{"addToInventory":true,"status":"COMPLETED","output":{"title":"A red bicycle on a hill","type":"MEDIA","category":"MARKETING_VIDEO","url":"https://cdn.pikapikapika.io/v1/files/abc123/a_red_bicycle_on_a_hill.mp4"}}}`
	if string(got) != want {
		t.Errorf("payload mismatch:\ngot  %s\nwant %s", got, want)
	}
}

func TestNewFailure_PayloadShape(t *testing.T) {
	payload := NewFailure()

	got, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"data":{"addToInventory":false,"status":"FAILED","output":null}}`
	if string(got) != want {
		t.Errorf("payload mismatch:\ngot  %s\nwant %s", got, want)
	}
}

func TestNewSuccess_Deterministic(t *testing.T) {
	url := "https://cdn.pikapikapika.io/v1/files/abc123/city_street_at_night_seed9.mp4"

	first, err := json.Marshal(NewSuccess(url))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := json.Marshal(NewSuccess(url))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("expected byte-identical payloads:\nfirst  %s\nsecond %s", first, second)
	}
}
