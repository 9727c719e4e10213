package mcp

import "errors"

var (
	ErrMissingParam = errors.New("missing required parameter")
	ErrParamType    = errors.New("parameter has wrong type")
)
