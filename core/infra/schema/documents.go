package schema

import (
	"embed"
	"fmt"

	"github.com/TamimulAhsan/sentineliam/core/policy"
)

//go:embed documents/*.schema.json
var documentSchemaFS embed.FS

// ValidateDocument checks a policy document against the structural schema for
// its platform before it is submitted to the store. The schemas are
// deliberately loose: they reject the wrong shape, not the wrong permissions;
// semantic rejection stays server-side.
func ValidateDocument(platform policy.Platform, doc any) error {
	if !platform.Valid() {
		return fmt.Errorf("unknown platform %q", platform)
	}
	name := fmt.Sprintf("documents/%s.schema.json", platform)
	data, err := documentSchemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("load %s document schema: %w", platform, err)
	}
	return ValidateSchema(string(platform)+"-document", data, doc)
}
