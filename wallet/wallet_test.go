package wallet

import (
	"context"
	"fmt"
	"testing"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/runtime"
)

func TestKeySigner(t *testing.T) {
	if _, err := NewKeySigner(nil); err == nil {
		t.Error("empty key accepted")
	}
	s, err := NewKeySigner([]byte("dev-key"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	a, _ := s.Sign(ctx, "alice/Pay", "tx:1")
	b, _ := s.Sign(ctx, "bob/Pay", "tx:1")
	if a == b {
		t.Error("signature does not depend on the component")
	}
	if len(a) != 64 {
		t.Errorf("signature length = %d", len(a))
	}
	if !s.Verify("alice/Pay", "tx:1", a) || s.Verify("alice/Pay", "tx:2", a) {
		t.Error("Verify disagrees with Sign")
	}
}

func TestHost(t *testing.T) {
	caller := runtime.Caller{ComponentID: "alice/Pay##root", Path: "alice/Pay"}
	ctx := context.Background()

	tests := []struct {
		name    string
		signer  Signer
		payload any
		want    any
		wantErr bool
	}{
		{
			name: "delegates",
			signer: SignerFunc(func(_ context.Context, p component.Path, payload string) (string, error) {
				return string(p) + ":" + payload, nil
			}),
			payload: "tx",
			want:    "alice/Pay:tx",
		},
		{name: "no signer", payload: "tx", wantErr: true},
		{
			name:    "empty payload",
			signer:  SignerFunc(func(context.Context, component.Path, string) (string, error) { return "x", nil }),
			payload: "",
			wantErr: true,
		},
		{
			name: "signer fails",
			signer: SignerFunc(func(context.Context, component.Path, string) (string, error) {
				return "", fmt.Errorf("locked")
			}),
			payload: "tx",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := runtime.NewHostRegistry()
			if err := reg.RegisterHost(NewHost(tt.signer)); err != nil {
				t.Fatal(err)
			}
			got, err := reg.Invoke(ctx, caller, "wallet.sign", []any{tt.payload})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
