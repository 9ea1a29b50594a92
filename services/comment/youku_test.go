package comment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestYoukuOpenSessionRetriesTokenEndpoint(t *testing.T) {
	tokenCalls := 0
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(req.URL.Host, "log.mmstat.com"):
			resp := textResponse(200, "")
			resp.Header.Set("Etag", `"device-cna"`)
			return resp, nil
		case strings.Contains(req.URL.Host, "acs.youku.com"):
			tokenCalls++
			if tokenCalls < 3 {
				return nil, errors.New("connection reset")
			}
			resp := textResponse(200, "{}")
			resp.Header.Add("Set-Cookie", "_m_h5_tk=abcdef0123456789abcdef0123456789_1700000000000; Path=/")
			resp.Header.Add("Set-Cookie", "_m_h5_tk_enc=enc-value; Path=/")
			return resp, nil
		}
		t.Fatalf("unexpected request: %s", req.URL)
		return nil, nil
	})

	c := NewYoukuClient(fakeHTTP(transport), "key", 1)
	sess, err := c.openSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokenCalls != 3 {
		t.Errorf("token endpoint called %d times, want 3", tokenCalls)
	}
	if sess.cna != "device-cna" {
		t.Errorf("cna = %q", sess.cna)
	}
	if !strings.HasPrefix(sess.token, "abcdef") || sess.tokEnc != "enc-value" {
		t.Errorf("unexpected session: %+v", sess)
	}
}

func TestYoukuOpenSessionGivesUpAfterBoundedAttempts(t *testing.T) {
	tokenCalls := 0
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Host, "log.mmstat.com") {
			return textResponse(200, ""), nil
		}
		tokenCalls++
		return nil, errors.New("connection reset")
	})

	c := NewYoukuClient(fakeHTTP(transport), "key", 1)
	if _, err := c.openSession(context.Background()); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if tokenCalls != youkuTokenAttempts {
		t.Errorf("token endpoint called %d times, want %d", tokenCalls, youkuTokenAttempts)
	}
}
