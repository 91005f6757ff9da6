package secrets

import (
	"encoding/json"
	"strings"
)

const (
	secretPrefix = "secret://"
	redactedMark = "<redacted>"
)

// credentialKeys are document keys whose string values are credential
// material regardless of shape: AWS access key pairs and session tokens,
// Azure client secrets and SAS tokens, GCP service account key data. Key
// names are matched case-insensitively with separators stripped, so
// "SecretAccessKey", "secret_access_key", and "secret-access-key" all hit.
var credentialKeys = map[string]struct{}{
	"secretaccesskey": {},
	"sessiontoken":    {},
	"clientsecret":    {},
	"sastoken":        {},
	"sharedaccesskey": {},
	"privatekeydata":  {},
	"password":        {},
}

// ContainsSecretRefs reports whether a decoded policy document carries
// credential material: a secret:// reference or a value under a known
// credential-bearing key.
func ContainsSecretRefs(doc any) bool {
	_, found := redactValue("", doc, false)
	return found
}

// RedactSecretRefs returns a copy of a decoded policy document with
// credential material replaced by "<redacted>". Documents are redacted before
// they are printed or published; the catalog itself always holds the
// original.
func RedactSecretRefs(doc any) (any, bool) {
	return redactValue("", doc, true)
}

// RedactJSON redacts credential material inside a raw JSON payload.
func RedactJSON(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return data, false, nil
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return data, false, err
	}
	redacted, changed := RedactSecretRefs(payload)
	if !changed {
		return data, false, nil
	}
	out, err := json.Marshal(redacted)
	return out, true, err
}

func redactValue(key string, value any, replace bool) (any, bool) {
	switch v := value.(type) {
	case nil:
		return v, false
	case string:
		if !isSensitive(key, v) {
			return v, false
		}
		if replace {
			return redactedMark, true
		}
		return v, true
	case map[string]any:
		changed := false
		out := make(map[string]any, len(v))
		for k, child := range v {
			red, childChanged := redactValue(k, child, replace)
			if childChanged {
				changed = true
			}
			out[k] = red
		}
		return out, changed
	case []any:
		changed := false
		out := make([]any, len(v))
		for i, child := range v {
			red, childChanged := redactValue(key, child, replace)
			if childChanged {
				changed = true
			}
			out[i] = red
		}
		return out, changed
	default:
		return v, false
	}
}

func isSensitive(key, value string) bool {
	if strings.HasPrefix(strings.TrimSpace(value), secretPrefix) {
		return true
	}
	if key == "" || value == "" {
		return false
	}
	_, hit := credentialKeys[normalizeKey(key)]
	return hit
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	return key
}
