package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxhr/internal/ledger"
)

func newTestRouter() (*Router, *ledger.Ledger) {
	l := ledger.New(ledger.Seed())
	return NewRouter(NewHRRegistry(l), l.IDs()), l
}

func route(t *testing.T, r *Router, utterance string) string {
	t.Helper()
	out, err := r.Route(context.Background(), utterance)
	require.NoError(t, err)
	return out
}

func TestRouteIntents(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		utterance string
		want      string
	}{
		{name: "balance", utterance: "What's the leave balance for E001?", want: "E001 has 18 leave days remaining."},
		{name: "how many days", utterance: "how many days does e002 have", want: "E002 has 20 leave days remaining."},
		{name: "balance wins over history", utterance: "balance and history for E001", want: "E001 has 18 leave days remaining."},
		{name: "history", utterance: "show history for E001", want: "Leave history for E001: 2024-12-25, 2025-01-01"},
		{name: "empty history", utterance: "history E002", want: "No leaves taken."},
		{name: "balance without id", utterance: "what is my balance", want: askForID},
		{name: "apply without id", utterance: "apply leave on 2025-04-17", want: askForID},
		{name: "apply without dates", utterance: "apply leave for E001 tomorrow", want: askForDates},
		{name: "unknown", utterance: "what's the weather", want: Unrecognized},
		{name: "help", utterance: "help", want: usage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRouter()
			assert.Equal(t, tc.want, route(t, r, tc.utterance))
		})
	}
}

func TestRouteApplyLeave(t *testing.T) {
	t.Parallel()

	r, l := newTestRouter()

	out := route(t, r, "apply leave for E001 on 2025-04-17 and 2025-05-01")
	assert.Contains(t, out, "Remaining balance: 16")

	assert.Equal(t, "Leave history for E001: 2024-12-25, 2025-01-01, 2025-04-17, 2025-05-01", l.History("E001"))
}

func TestRouteGreeting(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter()

	assert.Contains(t, route(t, r, "hello, my name is Sam"), "Sam")
	assert.Contains(t, route(t, r, "hi there"), "there")
	assert.Contains(t, route(t, r, "Hi, call me Alex."), "Alex!")
	assert.Contains(t, route(t, r, "hello i am Maria and my name is Mia"), "Mia")
	assert.Equal(t, "Hello, there! How can I assist you today?", route(t, r, "hello"))
}

func TestRouteApplyErrorIsReported(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.RegisterTool(ToolApply, []string{"employee_id"}, func(_ context.Context, a Args) (string, error) {
		_, err := a.Strings("leave_dates")
		return "", err
	})
	r := NewRouter(reg, []string{"E001"})

	out := route(t, r, "apply leave E001 2025-01-01")
	assert.Contains(t, out, "Error processing leave application: ")
	assert.Contains(t, out, ErrMissingParam.Error())
}

func TestRouteMissingTool(t *testing.T) {
	t.Parallel()

	r := NewRouter(NewRegistry(), []string{"E001"})
	assert.Equal(t, "Tool 'get_leave_balance' not found.", route(t, r, "balance E001"))
}
