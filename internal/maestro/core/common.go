package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const MaxConcurrentAPICalls = 40

// requestLimiter bounds outbound API calls across all running flows.
var requestLimiter = make(chan struct{}, MaxConcurrentAPICalls)

// RunWithRateLimitedConcurrency runs fn once a slot is free. The slot is
// released even if fn panics.
func RunWithRateLimitedConcurrency(fn func()) {
	requestLimiter <- struct{}{}
	defer func() { <-requestLimiter }()
	fn()
}

// ErrInvalidInput marks errors caused by the caller's flow input.
var ErrInvalidInput = errors.New("invalid input")

func MissingParamErr(paramName string) error {
	return fmt.Errorf("%w: required param [%v] is missing", ErrInvalidInput, paramName)
}

func InvalidParamErr(paramName, reason string) error {
	return fmt.Errorf("%w: param [%v] %s", ErrInvalidInput, paramName, reason)
}

func (c *MaestroContext) ExtractString(name string) (string, error) {
	raw, ok := c.Input[name]
	if !ok {
		return "", MissingParamErr(name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", InvalidParamErr(name, "must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", MissingParamErr(name)
	}
	return s, nil
}

// ExtractOptionalString returns "" when the param is absent.
func (c *MaestroContext) ExtractOptionalString(name string) (string, error) {
	if _, ok := c.Input[name]; !ok {
		return "", nil
	}
	return c.ExtractString(name)
}

func (c *MaestroContext) ExtractFloat(name string) (float64, error) {
	raw, ok := c.Input[name]
	if !ok {
		return 0, MissingParamErr(name)
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, InvalidParamErr(name, "must be a number")
	}
	return f, nil
}

// ExtractIntList accepts a JSON array of whole numbers.
func (c *MaestroContext) ExtractIntList(name string) ([]int, error) {
	raw, ok := c.Input[name]
	if !ok {
		return nil, MissingParamErr(name)
	}
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, InvalidParamErr(name, "must be a non-empty list of numbers")
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		f, ok := item.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, InvalidParamErr(name, "must contain whole numbers")
		}
		out = append(out, int(f))
	}
	return out, nil
}

func (c *MaestroContext) ExtractStringList(name string) ([]string, error) {
	raw, ok := c.Input[name]
	if !ok {
		return nil, MissingParamErr(name)
	}
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, InvalidParamErr(name, "must be a non-empty list of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, InvalidParamErr(name, "must contain non-empty strings")
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}
