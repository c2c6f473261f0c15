package weberr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
)

func TestWrapKeepsInnerDecorations(t *testing.T) {
	base := errors.New("item already in cart")
	err := weberr.BadRequest(base, weberr.Quiet(), weberr.WithFields(map[string]any{"user": "u1"}))
	err = weberr.Wrap(err, weberr.WithFields(map[string]any{"item": "tea"}))

	if !errors.Is(err, base) {
		t.Fatalf("wrapped error lost its cause: %v", err)
	}
	if !weberr.IsQuiet(err) {
		t.Error("quiet flag not carried over")
	}

	body, status, ok := weberr.Response(err)
	if !ok || status != http.StatusBadRequest {
		t.Fatalf("Response() = %v, %d, %v", body, status, ok)
	}
	if diff := cmp.Diff(&weberr.ErrorResponse{Error: "item already in cart"}, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}

	fields, _ := weberr.Fields(err)
	if diff := cmp.Diff(map[string]any{"user": "u1", "item": "tea"}, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestPlainError(t *testing.T) {
	err := errors.New("boom")
	if _, _, ok := weberr.Response(err); ok {
		t.Error("plain error reported a response")
	}
	if _, ok := weberr.Fields(err); ok {
		t.Error("plain error reported fields")
	}
	if weberr.IsQuiet(err) {
		t.Error("plain error reported quiet")
	}
}

func TestLaterResponseWins(t *testing.T) {
	err := weberr.NotFound(errors.New("no such order"))
	err = weberr.Forbidden(err)

	_, status, _ := weberr.Response(err)
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want %d", status, http.StatusForbidden)
	}
}
