// Package sign collects the request-shaping primitives the upstream video
// platforms require: keyed hashes for query signing, AES-ECB payload
// decryption, and the byte-safe base64 variant Youku's gateway expects.
package sign

import (
	"crypto/aes"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// MD5Hex returns the lowercase hex MD5 digest of s.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HMACSHA256Base64 signs message with key and returns the base64 digest.
func HMACSHA256Base64(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Latin1Base64 encodes s as ISO-8859-1 bytes and base64s the result.
// Characters outside Latin-1 are percent-escaped first, matching what the
// Youku web player sends; a plain UTF-8 base64 produces a different
// signature and the gateway rejects it.
func Latin1Base64(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if r > 0xff {
			b.WriteString(url.QueryEscape(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(b.String())
	if err != nil {
		return "", fmt.Errorf("latin1 encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// AESDecryptECB base64-decodes cipherB64 and decrypts it with AES-ECB and
// PKCS#7 padding. Renren ships its comment bundles this way with a fixed
// 16-byte key.
func AESDecryptECB(cipherB64, key string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cipherB64))
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return nil, errors.New("ciphertext length not a multiple of block size")
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += bs {
		block.Decrypt(out[i:i+bs], data[i:i+bs])
	}
	return stripPKCS7(out, bs)
}

func stripPKCS7(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	pad := int(data[n-1])
	if pad == 0 || pad > blockSize || pad > n {
		return nil, errors.New("invalid pkcs7 padding")
	}
	for _, b := range data[n-pad:] {
		if int(b) != pad {
			return nil, errors.New("invalid pkcs7 padding")
		}
	}
	return data[:n-pad], nil
}

// SortedQuery builds a query string with keys in lexicographic order, the
// canonical form Renren's x-ca-sign covers.
func SortedQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(pairs, "&")
}

// BuildQuery builds an unordered query string from params.
func BuildQuery(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}
