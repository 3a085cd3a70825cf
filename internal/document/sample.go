package document

import _ "embed"

// Sample is the bundled sample settings document in YAML.
//
//go:embed sample.yaml
var Sample []byte
