package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/common"
)

func TestGetKnownTypes(t *testing.T) {
	for _, dt := range constants.AllDocumentTypes {
		def, err := Get(dt)
		require.NoError(t, err)
		require.Equal(t, dt, def.DocType)
		require.NotEmpty(t, def.Fields)
	}
}

func TestGetUnknownType(t *testing.T) {
	_, err := Get(constants.DocumentType("invoice"))
	require.ErrorIs(t, err, common.ErrUnknownDocumentType)
}

func TestRequiredFields(t *testing.T) {
	def, err := Get(constants.ShopReceipt)
	require.NoError(t, err)
	require.Equal(t, []string{"merchant_name", "total_amount", "date_of_purchase"}, def.RequiredFields())

	def, err = Get(constants.DrivingLicense)
	require.NoError(t, err)
	require.Equal(t,
		[]string{"name", "date_of_birth", "license_number", "issuing_state", "expiry_date"},
		def.RequiredFields())
}

func TestLookup(t *testing.T) {
	def, err := Get(constants.Resume)
	require.NoError(t, err)

	f, ok := def.Lookup("work_experience")
	require.True(t, ok)
	require.Equal(t, TypeObjectList, f.Type)
	require.Len(t, f.Item, 3)

	_, ok = def.Lookup("salary")
	require.False(t, ok)
}

func TestJSONSchemaIsShapeOnly(t *testing.T) {
	def, err := Get(constants.ShopReceipt)
	require.NoError(t, err)

	m := def.JSONSchema()
	require.Equal(t, "object", m["type"])
	require.NotContains(t, m, "required")
	require.Equal(t, true, m["additionalProperties"])

	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "total_amount")
	require.Contains(t, props, "items")

	items, ok := props["items"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "array", items["type"])
	itemSchema, ok := items["items"].(map[string]any)
	require.True(t, ok)
	require.NotContains(t, itemSchema, "required")
}
