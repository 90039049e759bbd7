// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// StringID generates unique upload identifiers.
type StringID interface {
	// Generate generates a unique identifier as a string.
	Generate() string
}

// NewStringID returns the ID generator named by kind, "uuid" or "snowflake".
func NewStringID(kind string) (StringID, error) {
	switch kind {
	case "", "uuid":
		return NewUUID(), nil
	case "snowflake":
		return NewSnowflake()
	default:
		return nil, fmt.Errorf("unknown id generator %q", kind)
	}
}

// UUID generates RFC 4122 UUID strings.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Snowflake generates sortable numeric IDs using the Snowflake algorithm.
type Snowflake struct {
	node *snowflake.Node
}

func generateRandomNodeID() (int64, error) {
	var nodeID int64

	err := binary.Read(rand.Reader, binary.BigEndian, &nodeID)
	if err != nil {
		return 0, err
	}

	return nodeID & (1<<10 - 1), nil // Limiting to 10 bits for node ID
}

// NewSnowflake constructs a Snowflake generator with a random node ID.
func NewSnowflake() (*Snowflake, error) {
	nodeID, err := generateRandomNodeID()
	if err != nil {
		return nil, err
	}

	snowflake.Epoch = 1767225600000 // Thu Jan 01 2026 00:00:00.000 UTC

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique ID in its decimal form.
func (s *Snowflake) Generate() string {
	return s.node.Generate().String()
}
