package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tuannm99/novadb/internal/engine"
)

// statsReport is the shape yaml.v3 marshals for the stats subcommand,
// grounded on the internal/storage.JSONMarshal-adjacent "human-readable
// dump of internal state" convention from the example pack, swapped to
// YAML per the DOMAIN STACK's gopkg.in/yaml.v3 wiring.
type statsReport struct {
	InstanceID   string `yaml:"instance_id"`
	PoolCapacity int    `yaml:"pool_capacity"`
}

func runStats(db *engine.Database, args []string) error {
	report := statsReport{
		InstanceID:   db.InstanceID().String(),
		PoolCapacity: db.Pool().Capacity(),
	}
	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
