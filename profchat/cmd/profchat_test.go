package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"profchat/profchat/client"

	fcolor "github.com/fatih/color"
)

func TestExchangeNotice(t *testing.T) {
	fcolor.NoColor = true

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, ""},
		{"blank input", client.ErrEmptyMessage, ""},
		{"interrupted", fmt.Errorf("chat stream: %w", context.Canceled), "answer interrupted"},
		{"failure", errors.New("chat request: 500"), "error: chat request: 500"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := exchangeNotice(c.err); strings.TrimSpace(got) != c.want {
				t.Errorf("exchangeNotice(%v) = %q, want %q", c.err, got, c.want)
			}
		})
	}
}
