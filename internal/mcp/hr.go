package mcp

import (
	"context"
	"fmt"

	"voxhr/internal/ledger"
)

const (
	ToolBalance = "get_leave_balance"
	ToolHistory = "get_leave_history"
	ToolApply   = "apply_leave"

	ResourceGreeting = "greeting://{name}"
	ResourceHelp     = "help://usage"
)

const usage = `I can help you with the following:
- Check leave balance: "What's the leave balance for E001?"
- View leave history: "Show leave history for E002"
- Apply for leave: "Apply leave for E001 on 2025-04-17 and 2025-05-01"
- Say hello: "Hello, my name is Sam"`

// NewHRRegistry registers the leave tools and the greeting/help resources
// against l.
func NewHRRegistry(l *ledger.Ledger) *Registry {
	r := NewRegistry()

	r.RegisterTool(ToolBalance, []string{"employee_id"}, func(_ context.Context, a Args) (string, error) {
		id, err := a.String("employee_id")
		if err != nil {
			return "", err
		}
		return l.Balance(id), nil
	})

	r.RegisterTool(ToolHistory, []string{"employee_id"}, func(_ context.Context, a Args) (string, error) {
		id, err := a.String("employee_id")
		if err != nil {
			return "", err
		}
		return l.History(id), nil
	})

	r.RegisterTool(ToolApply, []string{"employee_id", "leave_dates"}, func(_ context.Context, a Args) (string, error) {
		id, err := a.String("employee_id")
		if err != nil {
			return "", err
		}
		dates, err := a.Strings("leave_dates")
		if err != nil {
			return "", err
		}
		return l.Apply(id, dates), nil
	})

	r.RegisterResource(ResourceGreeting, func(_ context.Context, name string) (string, error) {
		return fmt.Sprintf("Hello, %s! How can I assist you today?", name), nil
	})

	r.RegisterResource(ResourceHelp, func(context.Context, string) (string, error) {
		return usage, nil
	})

	return r
}
