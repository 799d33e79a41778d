package llm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/schema"
)

func receiptSchema(t *testing.T) map[string]any {
	t.Helper()
	def, err := schema.Get(constants.ShopReceipt)
	require.NoError(t, err)
	return def.JSONSchema()
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain json", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  {\"a\":1}\n", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(StripFences([]byte(tt.in))))
		})
	}
}

func TestParseModelOutput(t *testing.T) {
	sch := receiptSchema(t)

	t.Run("valid object", func(t *testing.T) {
		record, raw, err := ParseModelOutput(sch, []byte(`{"merchant_name":"Corner Store","total_amount":"12.50"}`))
		require.NoError(t, err)
		require.Equal(t, "Corner Store", record["merchant_name"])
		require.NotEmpty(t, raw)
	})

	t.Run("missing fields pass the shape check", func(t *testing.T) {
		// required-field enforcement belongs to the validation stage
		record, _, err := ParseModelOutput(sch, []byte(`{"merchant_name":"Corner Store"}`))
		require.NoError(t, err)
		require.Len(t, record, 1)
	})

	t.Run("fenced output accepted", func(t *testing.T) {
		record, _, err := ParseModelOutput(sch, []byte("```json\n{\"merchant_name\":\"X\"}\n```"))
		require.NoError(t, err)
		require.Equal(t, "X", record["merchant_name"])
	})

	t.Run("prose is malformed", func(t *testing.T) {
		_, _, err := ParseModelOutput(sch, []byte("Sure! Here is the JSON you asked for."))
		require.Error(t, err)
		require.True(t, IsMalformed(err))
	})

	t.Run("empty output is malformed", func(t *testing.T) {
		_, _, err := ParseModelOutput(sch, []byte("   "))
		require.Error(t, err)
		require.True(t, IsMalformed(err))
	})

	t.Run("wrong shape is malformed", func(t *testing.T) {
		_, _, err := ParseModelOutput(sch, []byte(`{"items":"not a list"}`))
		require.Error(t, err)
		require.True(t, IsMalformed(err))
	})
}

func TestErrorKinds(t *testing.T) {
	transient := Transient(errDummy("rate limited"))
	permanent := Permanent(errDummy("bad key"))
	malformed := Malformed(errDummy("not json"))

	require.True(t, IsTransient(transient))
	require.False(t, IsTransient(permanent))
	require.False(t, IsTransient(malformed))

	require.True(t, IsMalformed(malformed))
	require.False(t, IsMalformed(transient))
}

type errDummy string

func (e errDummy) Error() string { return string(e) }
