// Package uuid provides UUID-based run identifiers.
package uuid

import "github.com/google/uuid"

// Generator produces random UUID strings.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a new UUIDv4 string.
func (g *Generator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
