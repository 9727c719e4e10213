package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteToolNotFound(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	out, err := r.ExecuteTool(context.Background(), "nope", Args{"x": "y"})
	require.NoError(t, err)
	assert.Equal(t, "Tool 'nope' not found.", out)
}

func TestExecuteToolFiltersArgs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var got Args
	r.RegisterTool("echo", []string{"a"}, func(_ context.Context, args Args) (string, error) {
		got = args
		return "ok", nil
	})

	out, err := r.ExecuteTool(context.Background(), "echo", Args{"a": "1", "extra": "2"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, Args{"a": "1"}, got)
}

func TestExecuteToolMissingParamPropagates(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterTool("need", []string{"a"}, func(_ context.Context, args Args) (string, error) {
		_, err := args.String("a")
		return "", err
	})

	_, err := r.ExecuteTool(context.Background(), "need", Args{"b": "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingParam))
}

func TestRegisterToolLastWriterWins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterTool("t", nil, func(context.Context, Args) (string, error) { return "first", nil })
	r.RegisterTool("t", nil, func(context.Context, Args) (string, error) { return "second", nil })

	out, err := r.ExecuteTool(context.Background(), "t", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out)
	assert.Len(t, r.Tools(), 1)
}

func TestExecuteResource(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterResource("greeting://{name}", func(_ context.Context, v string) (string, error) {
		return "hi " + v, nil
	})
	r.RegisterResource("multi://{a}/{b}", func(_ context.Context, v string) (string, error) {
		return "a=" + v, nil
	})
	r.RegisterResource("static://info", func(context.Context, string) (string, error) {
		return "static", nil
	})

	testCases := []struct {
		name string
		uri  string
		args Args
		want string
	}{
		{name: "pattern by scheme", uri: "greeting", args: Args{"name": "Sam", "other": 1}, want: "hi Sam"},
		{name: "exact template", uri: "greeting://{name}", args: Args{"name": "Ana"}, want: "hi Ana"},
		{name: "first variable only", uri: "multi", args: Args{"a": "1", "b": "2"}, want: "a=1"},
		{name: "plain exact", uri: "static://info", want: "static"},
		{name: "plain scheme does not match", uri: "static", want: "Resource 'static' not found."},
		{name: "unknown", uri: "weather", want: "Resource 'weather' not found."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.ExecuteResource(context.Background(), tc.uri, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestExecuteResourceMissingVariable(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterResource("greeting://{name}", func(_ context.Context, v string) (string, error) {
		return v, nil
	})

	_, err := r.ExecuteResource(context.Background(), "greeting", Args{})
	assert.ErrorIs(t, err, ErrMissingParam)
}

func TestResourcesListing(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterResource("b://{x}", func(context.Context, string) (string, error) { return "", nil })
	r.RegisterResource("a://plain", func(context.Context, string) (string, error) { return "", nil })

	res := r.Resources()
	require.Len(t, res, 2)
	assert.Equal(t, "a://plain", res[0].Template)
	assert.Equal(t, "", res[0].Variable)
	assert.Equal(t, "b", res[1].Scheme)
	assert.Equal(t, "x", res[1].Variable)
}
