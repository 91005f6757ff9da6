package policy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Platform identifies the cloud provider a policy belongs to. The set is
// fixed; the value is always supplied by the policy store, never inferred.
type Platform string

const (
	PlatformAWS   Platform = "aws"
	PlatformAzure Platform = "azure"
	PlatformGCP   Platform = "gcp"
)

// Platforms lists every known platform in a stable order.
var Platforms = []Platform{PlatformAWS, PlatformAzure, PlatformGCP}

// ParsePlatform normalizes and validates a platform string.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformAWS, PlatformAzure, PlatformGCP:
		return true
	}
	return false
}

// ID is an opaque record identifier. The store emits either a JSON string or
// a JSON number for it; both decode to the same textual form.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	switch v := raw.(type) {
	case string:
		*id = ID(v)
	case json.Number:
		*id = ID(v.String())
	default:
		return fmt.Errorf("id must be a string or number, got %T", raw)
	}
	return nil
}

// FindingDetails carries the human-readable issues the scanner attached to a
// policy. Read-only display data.
type FindingDetails struct {
	Issues []string `json:"issues"`
}

// Record is one IAM policy plus its server-computed risk metadata. ID is the
// key for every mutation and is stable across fetches. RiskScore,
// IsVulnerable, and FindingDetails are server-authoritative and only change
// when a save returns the updated record.
type Record struct {
	ID             ID             `json:"id"`
	Name           string         `json:"name"`
	EntityName     string         `json:"entity_name"`
	Platform       Platform       `json:"platform"`
	Document       any            `json:"document"`
	RiskScore      int            `json:"risk_score"`
	IsVulnerable   bool           `json:"is_vulnerable"`
	FindingDetails FindingDetails `json:"finding_details"`
}
