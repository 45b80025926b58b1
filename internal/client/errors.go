package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

const maxPlainMessage = 200

// errorBody accepts both the enveloped {"error": {...}} shape and flat bodies.
type errorBody struct {
	Error       json.RawMessage   `json:"error"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors"`
	Errors      json.RawMessage   `json:"errors"`
}

type nestedError struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors"`
}

// decodeError maps a non-2xx response to the error taxonomy.
func decodeError(status int, raw []byte) error {
	message, fields := parseErrorBody(raw)
	if message == "" {
		message = strings.ToLower(http.StatusText(status))
	}
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", status)
	}

	var err *appErrors.Error
	switch {
	case status == http.StatusNotFound:
		err = appErrors.Clone(appErrors.ErrNotFound, message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		err = appErrors.Clone(appErrors.ErrUnauthorized, message)
	case (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict) && len(fields) > 0:
		err = appErrors.Validation(message, fields)
	default:
		err = appErrors.Clone(appErrors.ErrAPI, message)
		if len(fields) > 0 {
			err.FieldErrors = fields
		}
	}
	err.Status = status
	return err
}

func parseErrorBody(raw []byte) (string, map[string]string) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		text := strings.TrimSpace(string(raw))
		if len(text) > maxPlainMessage {
			text = text[:maxPlainMessage]
		}
		return text, nil
	}
	message := body.Message
	fields := body.FieldErrors
	if len(fields) == 0 && len(body.Errors) > 0 {
		var byField map[string]string
		if err := json.Unmarshal(body.Errors, &byField); err == nil {
			fields = byField
		}
	}
	if len(body.Error) > 0 {
		var nested nestedError
		if err := json.Unmarshal(body.Error, &nested); err == nil {
			if nested.Message != "" {
				message = nested.Message
			}
			if len(nested.FieldErrors) > 0 {
				fields = nested.FieldErrors
			}
		} else {
			var text string
			if err := json.Unmarshal(body.Error, &text); err == nil && message == "" {
				message = text
			}
		}
	}
	return message, fields
}
