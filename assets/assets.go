// Package assets bundles the default boot-config template.
package assets

import _ "embed"

// CloudConfigPath is where the template lives relative to the repository root.
const CloudConfigPath = "assets/cloud-init/cloud-config.yaml"

// CloudConfig is the embedded copy of the template at CloudConfigPath.
//
//go:embed cloud-init/cloud-config.yaml
var CloudConfig string
