package config

import "embed"

const consoleSchemaFile = "schema/console.schema.json"

//go:embed schema/*.json
var configSchemaFS embed.FS
