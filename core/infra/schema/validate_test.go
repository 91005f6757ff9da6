package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/TamimulAhsan/sentineliam/core/policy"
)

func TestValidateSchema(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	if err := ValidateSchema("test", schema, map[string]any{"name": "ok"}); err != nil {
		t.Fatalf("expected valid schema: %v", err)
	}
	err := ValidateSchema("test", schema, map[string]any{"nope": "bad"})
	if err == nil {
		t.Fatalf("expected schema validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestValidateSchemaEmpty(t *testing.T) {
	if err := ValidateSchema("test", nil, nil); err == nil {
		t.Fatalf("expected error for empty schema")
	}
	if err := ValidateSchema("test", []byte{}, nil); err == nil {
		t.Fatalf("expected error for empty schema")
	}
}

func TestNormalizeValue(t *testing.T) {
	data := json.RawMessage(`{"k":"v"}`)
	val, err := normalizeValue(data)
	if err != nil {
		t.Fatalf("normalize raw: %v", err)
	}
	m, ok := val.(map[string]any)
	if !ok || m["k"] != "v" {
		t.Fatalf("unexpected normalized value")
	}
	if _, err := normalizeValue([]byte("{")); err == nil {
		t.Fatalf("expected error for invalid byte json")
	}
}

func TestValidateDocumentPlatforms(t *testing.T) {
	awsDoc := map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{
			map[string]any{"Effect": "Allow", "Action": "s3:GetObject", "Resource": "*"},
		},
	}
	if err := ValidateDocument(policy.PlatformAWS, awsDoc); err != nil {
		t.Fatalf("expected valid aws document: %v", err)
	}
	if err := ValidateDocument(policy.PlatformGCP, map[string]any{"role": "roles/viewer"}); err != nil {
		t.Fatalf("expected valid gcp document: %v", err)
	}

	// Statement must be an object or a list of objects.
	err := ValidateDocument(policy.PlatformAWS, map[string]any{"Statement": "allow everything"})
	if err == nil {
		t.Fatalf("expected validation error for malformed statement")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestValidateDocumentUnknownPlatform(t *testing.T) {
	if err := ValidateDocument(policy.Platform("oracle"), map[string]any{}); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}

func TestSchemaIDDefault(t *testing.T) {
	if got := schemaID(""); got != "inmemory://schema" {
		t.Fatalf("unexpected schema id: %s", got)
	}
}
