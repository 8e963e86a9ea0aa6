package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FORKFUL_TOKEN_STORE", "memory")
	t.Setenv("FORKFUL_ACTIVITY_BROKERS", "")
	t.Setenv("FORKFUL_METRICS_ADDR", "")
	t.Setenv("FORKFUL_LOG_LEVEL", "error")
}

func TestDemoRunsEndToEnd(t *testing.T) {
	setTestEnv(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"demo"}, nil, &stdout, &stderr)

	require.NoError(t, err, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "signed in as demo@forkful.dev")
	assert.Contains(t, out, "Margherita")
	assert.Contains(t, out, "rejected: You can only order from one restaurant at a time.")
	assert.Contains(t, out, "Payment processed successfully")
	assert.Contains(t, out, "refresh calls: 1")
	assert.Contains(t, out, "order_created")
}

func TestUsageErrors(t *testing.T) {
	setTestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no command", args: nil, want: "usage: forkful <command>"},
		{name: "unknown command", args: []string{"teleport"}, want: `unknown command "teleport"`},
		{name: "missing arguments", args: []string{"add", "101"}, want: "usage: forkful add <menu-item-id> <qty>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			err := run(context.Background(), tt.args, nil, &stdout, &stderr)

			assert.ErrorIs(t, err, errUsage)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestWhoamiWithoutSession(t *testing.T) {
	setTestEnv(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"whoami"}, nil, &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", stdout.String())
}

func TestArgumentParsing(t *testing.T) {
	_, err := parseID("order id", "abc")
	assert.EqualError(t, err, `invalid order id "abc"`)

	_, err = parseQuantity("0")
	assert.Error(t, err)

	id, err := parseID("order id", "42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestDestructiveCommandsAskFirst(t *testing.T) {
	setTestEnv(t)

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{name: "declined", args: []string{"logout"}, stdin: "n\n", want: "Sign out? [y/N] aborted\n"},
		{name: "no answer", args: []string{"logout"}, stdin: "", want: "Sign out? [y/N] aborted\n"},
		{name: "accepted", args: []string{"logout"}, stdin: "Y\n", want: "Sign out? [y/N] signed out\n"},
		{name: "yes flag", args: []string{"logout", "--yes"}, stdin: "", want: "signed out\n"},
		{name: "cart item named", args: []string{"remove", "7"}, stdin: "no\n", want: "Remove cart item 7? [y/N] aborted\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			err := run(context.Background(), tt.args, strings.NewReader(tt.stdin), &stdout, &stderr)

			require.NoError(t, err, stderr.String())
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestSplitYes(t *testing.T) {
	args, yes := splitYes([]string{"-y", "7"})
	assert.True(t, yes)
	assert.Equal(t, []string{"7"}, args)

	args, yes = splitYes([]string{"7"})
	assert.False(t, yes)
	assert.Equal(t, []string{"7"}, args)
}
