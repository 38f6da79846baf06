package apperr

import (
	"fmt"
	"testing"
)

func TestIsArgument(t *testing.T) {
	wrapped := fmt.Errorf("%w: dir '/x' does not exist", ErrPathNotFound)
	if !IsArgument(wrapped) {
		t.Error("wrapped ErrPathNotFound should be an argument error")
	}
	if IsArgument(fmt.Errorf("%w: read a.md", ErrIO)) {
		t.Error("ErrIO is not an argument error")
	}
	if IsArgument(nil) {
		t.Error("nil is not an argument error")
	}
}
