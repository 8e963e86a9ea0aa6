package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	dErrors "forkful/pkg/domain-errors"
)

// doEnveloped performs req and decodes the response into out, accepting
// either the bare object or one nested under key (e.g. {"cart": {...}}).
func (c *Client) doEnveloped(ctx context.Context, req call, key string, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := unwrap(raw, key, out); err != nil {
		return &Error{Kind: KindDecode, Method: req.method, Path: req.path, Message: "unexpected response format", Err: err}
	}
	return nil
}

func unwrap(raw json.RawMessage, key string, out any) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err == nil {
		if inner, ok := probe[key]; ok {
			if trimmed := bytes.TrimSpace(inner); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
				return json.Unmarshal(trimmed, out)
			}
		}
	}
	return json.Unmarshal(raw, out)
}

type validator interface {
	Validate() error
}

// validate rejects a request before it reaches the network.
func validate(v validator) error {
	if err := v.Validate(); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
		}
		return err
	}
	return nil
}

func requireID(kind string, id int) error {
	if id <= 0 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s id must be positive", kind))
	}
	return nil
}
