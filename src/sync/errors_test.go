package sync

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(E(KindConflict, "busy", nil)); got != KindConflict {
		t.Errorf("KindOf = %q, want %q", got, KindConflict)
	}
	wrapped := fmt.Errorf("outer: %w", E(KindNotFound, "missing", nil))
	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindNotFound)
	}
	if got := KindOf(errors.New("plain")); got != KindDatabase {
		t.Errorf("KindOf(plain) = %q, want %q", got, KindDatabase)
	}
}

func TestProviderErrorMessage(t *testing.T) {
	pe := &ProviderError{Code: "ITEM_LOGIN_REQUIRED", Message: "credentials changed"}
	if got := pe.Error(); got != "ITEM_LOGIN_REQUIRED: credentials changed" {
		t.Errorf("Error() = %q", got)
	}

	var target *ProviderError
	err := E(KindProvider, "provider sync failed", pe)
	if !errors.As(err, &target) {
		t.Fatal("ProviderError not reachable through Unwrap")
	}
	if target.Code != "ITEM_LOGIN_REQUIRED" {
		t.Errorf("code = %q, want ITEM_LOGIN_REQUIRED", target.Code)
	}
}
