package comment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHanjuTVCursorPagination(t *testing.T) {
	pages := map[string]string{
		"0":     `{"data":{"barrageList":[{"t":1000,"tp":1,"sc":255,"con":"one"},{"t":5000,"tp":1,"sc":255,"con":"two"}]}}`,
		"5001":  `{"data":{"barrageList":[{"t":61000,"tp":5,"sc":16777215,"con":"three"}]}}`,
		"61001": `{"data":{"barrageList":[]}}`,
	}
	var calls []string
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		from := req.URL.Query().Get("fromAxis")
		calls = append(calls, from)
		body, ok := pages[from]
		if !ok {
			return textResponse(200, `{"data":{"barrageList":[]}}`), nil
		}
		return textResponse(200, body), nil
	})

	c := NewHanjuTVClient(fakeHTTP(transport))
	got, err := c.Fetch(context.Background(), "aB3dEf7hIj2LmN9pQr4sT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(got))
	}
	if got[2].TimePoint != 61.0 || got[2].Content != "three" {
		t.Errorf("last comment decoded wrong: %+v", got[2])
	}
	want := fmt.Sprintf("%v", []string{"0", "5001", "61001"})
	if fmt.Sprintf("%v", calls) != want {
		t.Errorf("cursor advanced wrong: %v", calls)
	}
}

func TestHanjuTVFirstPageFailure(t *testing.T) {
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return textResponse(500, "boom"), nil
	})
	c := NewHanjuTVClient(fakeHTTP(transport))
	if _, err := c.Fetch(context.Background(), "aB3dEf7hIj2LmN9pQr4sT"); err == nil {
		t.Fatal("expected error when the first page fails")
	}
}

func TestHanjuTVRequestShape(t *testing.T) {
	var gotURL string
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return textResponse(200, `{"data":{"barrageList":[]}}`), nil
	})
	c := NewHanjuTVClient(fakeHTTP(transport))
	if _, err := c.Fetch(context.Background(), "sid123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotURL, "/api/wapi/dm/barrage/list") || !strings.Contains(gotURL, "sid=sid123") {
		t.Errorf("unexpected url: %s", gotURL)
	}
}
