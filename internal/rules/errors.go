package rules

import "fmt"

// DependencyPathError reports a dependency whose path is not exactly
// "<watchId>.<subject>" (§4.2c, §7). The dependency is treated as
// unsatisfied, which gates the owning event; processing continues.
type DependencyPathError struct {
	Path string
}

func (e *DependencyPathError) Error() string {
	return fmt.Sprintf("rules: dependency path %q is not <watchId>.<subject>", e.Path)
}
