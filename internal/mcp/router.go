package mcp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	Unrecognized = "I didn't understand that command. Say 'help' to see what I can do."
	askForID     = "Please provide a valid employee ID (e.g., E001 or E002)."
	askForDates  = "Please specify leave dates in YYYY-MM-DD format (e.g., 2025-04-17)."
	applyFailed  = "Error processing leave application: "
	defaultName  = "there"
)

var (
	dateRe         = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	nameIndicators = []string{"my name is", "i am", "call me"}
)

// Router classifies an utterance by keyword and dispatches it through the
// registry. Rules are checked in order and the first match wins.
type Router struct {
	reg *Registry
	ids []string
}

// NewRouter takes the known employee ids in lookup order.
func NewRouter(reg *Registry, ids []string) *Router {
	return &Router{
		reg: reg,
		ids: append([]string(nil), ids...),
	}
}

func (r *Router) Route(ctx context.Context, utterance string) (string, error) {
	text := strings.ToLower(utterance)

	switch {
	case strings.Contains(text, "balance") || strings.Contains(text, "how many days"):
		id, ok := r.employeeID(text)
		if !ok {
			return askForID, nil
		}
		return r.reg.ExecuteTool(ctx, ToolBalance, Args{"employee_id": id})

	case strings.Contains(text, "history"):
		id, ok := r.employeeID(text)
		if !ok {
			return askForID, nil
		}
		return r.reg.ExecuteTool(ctx, ToolHistory, Args{"employee_id": id})

	case strings.Contains(text, "apply") && strings.Contains(text, "leave"):
		reply, err := r.apply(ctx, text)
		if err != nil {
			return applyFailed + err.Error(), nil
		}
		return reply, nil

	case strings.Contains(text, "hello") || strings.Contains(text, "hi"):
		return r.reg.ExecuteResource(ctx, "greeting", Args{"name": extractName(utterance)})

	case strings.Contains(text, "help"):
		return r.reg.ExecuteResource(ctx, ResourceHelp, nil)
	}

	return Unrecognized, nil
}

// Respond lets a Router serve as the listener's responder.
func (r *Router) Respond(ctx context.Context, utterance string) (string, error) {
	return r.Route(ctx, utterance)
}

func (r *Router) apply(ctx context.Context, text string) (string, error) {
	id, ok := r.employeeID(text)
	if !ok {
		return askForID, nil
	}

	dates := dateRe.FindAllString(text, -1)
	if len(dates) == 0 {
		return askForDates, nil
	}

	reply, err := r.reg.ExecuteTool(ctx, ToolApply, Args{
		"employee_id": id,
		"leave_dates": dates,
	})
	if err != nil {
		return "", fmt.Errorf("apply for %s: %w", id, err)
	}
	return reply, nil
}

func (r *Router) employeeID(text string) (string, bool) {
	for _, id := range r.ids {
		if strings.Contains(text, strings.ToLower(id)) {
			return id, true
		}
	}
	return "", false
}

// extractName returns the first word after a name indicator, keeping the
// speaker's casing.
func extractName(utterance string) string {
	lower := strings.ToLower(utterance)
	src := utterance
	if len(lower) != len(src) {
		src = lower
	}

	for _, ind := range nameIndicators {
		i := strings.Index(lower, ind)
		if i < 0 {
			continue
		}
		fields := strings.Fields(src[i+len(ind):])
		if len(fields) == 0 {
			continue
		}
		name := strings.TrimRightFunc(fields[0], unicode.IsPunct)
		if name != "" {
			return name
		}
	}
	return defaultName
}
