package gee

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxJSONBodyBytes caps request bodies read by ShouldBindJSON.
const MaxJSONBodyBytes = 1 << 20

var (
	ErrEmptyBody     = errors.New("empty body")
	ErrTrailingValue = errors.New("body must contain only one JSON value")
)

// ShouldBindJSON decodes exactly one JSON value into dst, rejecting unknown
// fields and oversized bodies.
func (c *Context) ShouldBindJSON(dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Req.Body, MaxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingValue
	}
	return nil
}

// BindJSON is ShouldBindJSON that answers 400 on failure.
func (c *Context) BindJSON(dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithError(http.StatusBadRequest, "invalid json")
		return err
	}
	return nil
}
