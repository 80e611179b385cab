package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsEmptyItemsEncodedAsList(t *testing.T) {
	clone := (&Cart{ID: "c1", Items: []CartItem{}}).Clone()

	require.NotNil(t, clone.Items)
	data, err := json.Marshal(clone)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
}

func TestCloneDoesNotAliasItems(t *testing.T) {
	src := &Cart{Items: []CartItem{{ProductID: "robovac-pro-x1", Quantity: 1}}}
	clone := src.Clone()

	clone.Items[0].Quantity = 5
	assert.Equal(t, 1, src.Items[0].Quantity)
	assert.Equal(t, 1, src.Quantity("robovac-pro-x1"))
	assert.Nil(t, (*Cart)(nil).Clone())
}
