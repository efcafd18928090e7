package watch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorExecuteCLI(t *testing.T) {
	e := NewExecutor(nil)
	spec := DriftTestSpec{
		EndpointType:   EndpointCLI,
		EndpointConfig: EndpointConfig{Command: []string{"echo", "hello drift"}},
	}
	out, err := e.Execute(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "hello drift", out)
}

func TestExecutorExecuteCLIMissingCommand(t *testing.T) {
	e := NewExecutor(nil)
	_, err := e.Execute(context.Background(), DriftTestSpec{EndpointType: EndpointCLI})
	assert.Error(t, err)
}

func TestExecutorExecuteFunction(t *testing.T) {
	registry := NewRegistry()
	registry.Register("builtins", "str", func(args []any) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("no args")
		}
		return fmt.Sprint(args[0]), nil
	})
	e := NewExecutor(registry)

	spec := DriftTestSpec{
		EndpointType:   EndpointFunction,
		EndpointConfig: EndpointConfig{Module: "builtins", Function: "str", Args: []any{123}},
	}
	out, err := e.Execute(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "123", out)
}

func TestExecutorExecuteFunctionUnregistered(t *testing.T) {
	e := NewExecutor(NewRegistry())
	spec := DriftTestSpec{
		EndpointType:   EndpointFunction,
		EndpointConfig: EndpointConfig{Module: "nonexistent_module", Function: "nonexistent_function"},
	}
	_, err := e.Execute(context.Background(), spec)
	assert.Error(t, err)
}

func TestExecutorExecuteHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "version 1.2.3")
	}))
	defer server.Close()

	e := NewExecutor(nil)
	spec := DriftTestSpec{
		EndpointType:   EndpointHTTP,
		EndpointConfig: EndpointConfig{URL: server.URL},
	}
	out, err := e.Execute(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "version 1.2.3", out)
}

func TestExecutorExecuteHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer server.Close()

	e := NewExecutor(nil)
	spec := DriftTestSpec{
		EndpointType:   EndpointHTTP,
		EndpointConfig: EndpointConfig{URL: server.URL},
	}
	_, err := e.Execute(context.Background(), spec)
	assert.Error(t, err)
}

func TestExecutorUnknownEndpointType(t *testing.T) {
	e := NewExecutor(nil)
	_, err := e.Execute(context.Background(), DriftTestSpec{EndpointType: "carrier_pigeon"})
	assert.Error(t, err)
}
