package leaf

import "github.com/fatih/structs"

// Trace re-flattens a decoded leaf configuration struct back into a
// map[string]any for logging/tracing, the way bittoy-rule's DSL-rendering
// path serializes a live node's configuration back out for tooling.
// Fields must be exported and carry a `structs:"..."` tag to control the
// flattened key name.
func Trace(cfg any) map[string]any {
	return structs.Map(cfg)
}
