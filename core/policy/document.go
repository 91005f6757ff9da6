package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeError reports that draft text is not valid structured data. It is
// resolved entirely locally and never reaches the network layer.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed structured content: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeDocument renders a policy document in its canonical human-editable
// form: indented JSON. The output is always valid input for DecodeDocument.
func EncodeDocument(doc any) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(data), nil
}

// DecodeDocument parses edited draft text back into a structured document.
// Failure yields a *DecodeError; the caller must keep the prior document.
func DecodeDocument(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &DecodeError{Err: err}
	}
	// Trailing garbage after the first value is still malformed input.
	if dec.More() {
		return nil, &DecodeError{Err: fmt.Errorf("unexpected trailing content")}
	}
	return doc, nil
}
