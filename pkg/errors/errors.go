/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

func (e *RemediatorError) Error() string {
	msg := fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
	if e.Details != "" {
		msg += " - " + e.Details
	}
	if e.Metadata != nil {
		if stderr, ok := e.Metadata["stderr"]; ok && stderr != "" {
			msg += "\nCommand output: " + stderr
		}
	}
	return msg
}

func (e *RemediatorError) WithMetadata(key, value string) *RemediatorError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// MarshalJSON customizes JSON serialization
func (e *RemediatorError) MarshalJSON() ([]byte, error) {
	type Alias RemediatorError
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(e),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// New creates a new RemediatorError
func New(code ErrorCode, details string) *RemediatorError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &RemediatorError{
			Code:    code,
			Domain:  "UNKNOWN",
			Message: "Unknown error",
			Details: details,
		}
	}

	return &RemediatorError{
		Code:    code,
		Domain:  def.domain,
		Message: def.message,
		Details: details,
	}
}

// Is implements the interface for errors.Is
func (e *RemediatorError) Is(target error) bool {
	if t, ok := target.(*RemediatorError); ok {
		return e.Code == t.Code && e.Domain == t.Domain
	}
	return false
}

// Is checks if an error matches a sentinel error
func Is(err, target error) bool {
	re, ok := err.(*RemediatorError)
	if !ok {
		return false
	}

	if t, ok := target.(*RemediatorError); ok {
		return re.Code == t.Code && re.Domain == t.Domain
	}
	return false
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode) *RemediatorError {
	if re, ok := err.(*RemediatorError); ok {
		newErr := New(code, re.Details)
		if re.Metadata != nil {
			for k, v := range re.Metadata {
				newErr.WithMetadata(k, v)
			}
		}
		newErr.WithMetadata("wrapped_code", fmt.Sprintf("%d", re.Code))
		newErr.WithMetadata("wrapped_domain", string(re.Domain))
		newErr.WithMetadata("wrapped_message", re.Message)
		return newErr
	}
	return New(code, err.Error())
}

// Unwrap implements the interface for errors.Unwrap
func (e *RemediatorError) Unwrap() error {
	if e.Metadata != nil {
		if originalErr, ok := e.Metadata["wrapped_error"]; ok {
			return fmt.Errorf("%s", originalErr)
		}
	}
	return nil
}

// IsRemediatorError checks if an error is a RemediatorError
func IsRemediatorError(err error) bool {
	_, ok := err.(*RemediatorError)
	return ok
}

// NewCommandError helper for command execution errors
func NewCommandError(cmd string, exitCode int, stderr string) *RemediatorError {
	return New(CommandExecution, "Command execution failed").
		WithMetadata("command", cmd).
		WithMetadata("exit_code", fmt.Sprintf("%d", exitCode)).
		WithMetadata("stderr", stderr)
}

// GetCode extracts the error code from an error if it's a RemediatorError.
// If not a RemediatorError, returns 0 and false
func GetCode(err error) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}

	if re, ok := err.(*RemediatorError); ok {
		return re.Code, true
	}

	var remErr *RemediatorError
	if errors.As(err, &remErr) {
		return remErr.Code, true
	}

	return 0, false
}

// GetErrorWithCode returns the first RemediatorError in the error chain with
// the specified code. Returns nil if no matching error is found
func GetErrorWithCode(err error, code ErrorCode) *RemediatorError {
	if err == nil {
		return nil
	}

	if re, ok := err.(*RemediatorError); ok && re.Code == code {
		return re
	}

	var remErr *RemediatorError
	if errors.As(err, &remErr) && remErr.Code == code {
		return remErr
	}

	return nil
}
