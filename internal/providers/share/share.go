// Package share encodes a snippet into a compact URL-safe token so a
// playground link can carry the code itself.
//
// Token layout: base64url(zstd(json{language, source})), unpadded.
package share

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// MaxSourceSize caps the decoded payload of a token.
const MaxSourceSize = 256 * 1024

var ErrInvalidToken = errors.New("invalid share token")

// Payload is what a token carries.
type Payload struct {
	Language string `json:"language"`
	Source   string `json:"source"`
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxSourceSize*2))
)

// Encode turns p into a token.
func Encode(p Payload) (string, error) {
	if p.Language == "" {
		return "", errors.New("share payload requires a language")
	}
	if len(p.Source) > MaxSourceSize {
		return "", fmt.Errorf("source exceeds %d bytes", MaxSourceSize)
	}

	raw, err := sonic.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode share payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(encoder.EncodeAll(raw, nil)), nil
}

// Decode reverses Encode.
func Decode(token string) (Payload, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var p Payload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if p.Language == "" {
		return Payload{}, fmt.Errorf("%w: missing language", ErrInvalidToken)
	}
	return p, nil
}
