// Package idgen issues order numbers.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out unique, time-ordered order numbers.
type Generator interface {
	Next() int64
}

// Snowflake generates ids from a snowflake node. Each running instance must
// use its own node id.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for node (0-1023).
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

// Next returns the next id.
func (s *Snowflake) Next() int64 {
	return s.node.Generate().Int64()
}
