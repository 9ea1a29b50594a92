package sign

import (
	"crypto/aes"
	"encoding/base64"
	"testing"
)

func TestMD5Hex(t *testing.T) {
	if got := MD5Hex("abc"); got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("unexpected digest: %s", got)
	}
}

func TestSortedQueryOrdersKeys(t *testing.T) {
	got := SortedQuery(map[string]string{"size": "20", "keywords": "test", "order": "match"})
	want := "keywords=test&order=match&size=20"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLatin1Base64RoundTrip(t *testing.T) {
	got, err := Latin1Base64("abc123")
	if err != nil {
		t.Fatalf("Latin1Base64 failed: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		t.Fatalf("output not base64: %v", err)
	}
	if string(raw) != "abc123" {
		t.Fatalf("round trip mismatch: %q", raw)
	}
}

func TestLatin1Base64EscapesWideRunes(t *testing.T) {
	got, err := Latin1Base64("弹")
	if err != nil {
		t.Fatalf("Latin1Base64 failed: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(got)
	if string(raw) != "%E5%BC%B9" {
		t.Fatalf("expected percent-escaped UTF-8, got %q", raw)
	}
}

func TestAESDecryptECB(t *testing.T) {
	key := "3b744389882a4067"
	plain := []byte(`{"data":[]}`)

	// Build a matching ciphertext by encrypting with the same ECB scheme.
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	bs := block.BlockSize()
	pad := bs - len(plain)%bs
	padded := append(append([]byte(nil), plain...), make([]byte, pad)...)
	for i := len(plain); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	enc := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		block.Encrypt(enc[i:i+bs], padded[i:i+bs])
	}

	got, err := AESDecryptECB(base64.StdEncoding.EncodeToString(enc), key)
	if err != nil {
		t.Fatalf("AESDecryptECB failed: %v", err)
	}
	if string(got) != string(plain) {
		t.Fatalf("got %q, want %q", got, plain)
	}
}

func TestAESDecryptECBRejectsGarbage(t *testing.T) {
	if _, err := AESDecryptECB("not base64 at all!!", "3b744389882a4067"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := AESDecryptECB(base64.StdEncoding.EncodeToString([]byte("short")), "3b744389882a4067"); err == nil {
		t.Fatal("expected error for bad block length")
	}
}
