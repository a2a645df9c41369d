// ABOUTME: Skills shipped with t3nets: embedded manifests plus their Go workers
// ABOUTME: Register loads both into a registry; on-disk skills may override them later
package builtin

import (
	"embed"
	"fmt"

	"github.com/WildEllie/t3nets/internal/skills"
	"github.com/WildEllie/t3nets/internal/skills/ping"
	"github.com/WildEllie/t3nets/internal/skills/sprintstatus"
)

//go:embed */skill.yaml
var manifests embed.FS

// Workers returns the Go workers of the built-in skills, keyed by skill name
func Workers() map[string]skills.Worker {
	return map[string]skills.Worker{
		ping.Name:         ping.New(),
		sprintstatus.Name: sprintstatus.New(),
	}
}

// Register loads the built-in skills into reg and returns their names
func Register(reg *skills.Registry) ([]string, error) {
	names, err := reg.LoadFS(manifests, Workers())
	if err != nil {
		return names, fmt.Errorf("failed to load built-in skills: %w", err)
	}
	return names, nil
}
