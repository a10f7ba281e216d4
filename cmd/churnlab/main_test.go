package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YuminosukeSato/churnlab/dataset"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["train"])
	assert.True(t, names["predict"])
}

func TestInferenceSchemaDropsLabel(t *testing.T) {
	schema := inferenceSchema(dataset.TelcoSchema)

	assert.Len(t, schema, len(dataset.TelcoSchema)-1)
	for _, col := range schema {
		assert.NotEqual(t, dataset.KindLabel, col.Kind, col.Name)
	}
	assert.Equal(t, "customerID", dataset.IdentifierColumn(schema))
}
