// Package wallet exposes transaction signing to components through the
// "wallet" host methods. Signing itself is delegated to a Signer.
package wallet

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/runtime"
)

// Signer signs a payload on behalf of a component.
type Signer interface {
	Sign(ctx context.Context, path component.Path, payload string) (string, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, path component.Path, payload string) (string, error)

func (f SignerFunc) Sign(ctx context.Context, path component.Path, payload string) (string, error) {
	return f(ctx, path, payload)
}

// KeySigner signs with HMAC-SHA256 over "path\x00payload" using a local
// key. It stands in for an external wallet during development.
type KeySigner struct {
	key []byte
}

func NewKeySigner(key []byte) (*KeySigner, error) {
	if len(key) == 0 {
		return nil, errors.InvalidInput(errors.PhaseHost, "signing key cannot be empty")
	}
	return &KeySigner{key: append([]byte(nil), key...)}, nil
}

func (s *KeySigner) Sign(_ context.Context, path component.Path, payload string) (string, error) {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(path))
	mac.Write([]byte{0})
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether sig was produced by Sign for path and payload.
func (s *KeySigner) Verify(path component.Path, payload, sig string) bool {
	want, _ := s.Sign(context.Background(), path, payload)
	return hmac.Equal([]byte(want), []byte(sig))
}

// Host is the "wallet" host method group.
type Host struct {
	signer Signer
}

func NewHost(s Signer) *Host {
	return &Host{signer: s}
}

func (h *Host) Namespace() string { return "wallet" }

// Register lists the methods explicitly; "sign" is the only one.
func (h *Host) Register() map[string]any {
	return map[string]any{"sign": h.sign}
}

func (h *Host) sign(ctx context.Context, c runtime.Caller, payload string) (string, error) {
	if h.signer == nil {
		return "", errors.Unsupported(errors.PhaseHost, "wallet signing")
	}
	if payload == "" {
		return "", errors.InvalidInput(errors.PhaseHost, "nothing to sign")
	}
	sig, err := h.signer.Sign(ctx, c.Path, payload)
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindRemote, err, "sign for "+string(c.Path))
	}
	return sig, nil
}

var (
	_ runtime.Host              = (*Host)(nil)
	_ runtime.ExplicitRegistrar = (*Host)(nil)
)
