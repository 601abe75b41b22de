package db

import (
	"context"
	"errors"
	"testing"
)

func TestNopTransactor_RunsFn(t *testing.T) {
	called := false
	err := NopTransactor{}.WithinTx(context.Background(), func(ctx context.Context) error {
		called = true
		if TxFromContext(ctx) != nil {
			t.Error("expected no transaction in context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to be called")
	}
}

func TestNopTransactor_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := NopTransactor{}.WithinTx(context.Background(), func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestTxFromContext_Empty(t *testing.T) {
	if TxFromContext(context.Background()) != nil {
		t.Error("expected nil transaction")
	}
}
