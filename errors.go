package lorasim

// errors.go defines the typed errors for spec.md §7 kind 1 and kind 2
// failures (configuration/terrain errors, and physical unreachability).
// cmd/lorasim/root.go distinguishes them with errors.As to choose an exit code,
// following the teacher's preference (desc-topo.go) for typed returns
// over string-sniffing. UnreachableNodeError is defined in sfassign.go,
// next to the one place it is raised.

import "fmt"

// ConfigError reports an invalid or inconsistent configuration, e.g. an
// unsupported region/policy combination (spec.md §7 kind 1).
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// TerrainError reports an unreadable or malformed terrain file, or a
// terrain with fewer than one node or gateway (spec.md §7 kind 1).
type TerrainError struct {
	Reason string
}

func (e *TerrainError) Error() string {
	return fmt.Sprintf("invalid terrain: %s", e.Reason)
}
