package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const querySchema = `{
  "type": "object",
  "required": ["rank", "category"],
  "properties": {
    "rank": {"type": "integer", "minimum": 1},
    "category": {"type": "string", "minLength": 1}
  }
}`

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name       string
		document   interface{}
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid",
			document:  map[string]interface{}{"rank": 4500, "category": "GM"},
			wantValid: true,
		},
		{
			name:       "missing category",
			document:   map[string]interface{}{"rank": 4500},
			wantFields: []string{"category"},
		},
		{
			name:       "rank below minimum",
			document:   map[string]interface{}{"rank": 0, "category": "GM"},
			wantFields: []string{"rank"},
		},
		{
			name:       "wrong types",
			document:   map[string]interface{}{"rank": "first", "category": 3},
			wantFields: []string{"rank", "category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateJSON(querySchema, tt.document)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			for _, f := range tt.wantFields {
				assert.True(t, result.HasErrors(f), "expected error on %s, got %v", f, result.GetErrorMessages())
			}
			if !tt.wantValid {
				assert.NotEmpty(t, result.Summary())
			}
		})
	}
}

func TestValidate_MapSchema(t *testing.T) {
	schema, err := GetSchemaFromJSON(querySchema)
	require.NoError(t, err)

	result, err := Validate(schema, struct {
		Rank     int    `json:"rank"`
		Category string `json:"category"`
	}{Rank: 10, Category: "2AG"})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	result, err = Validate(nil, map[string]interface{}{"anything": true})
	require.NoError(t, err)
	assert.True(t, result.Valid, "an empty schema accepts everything")
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("counseling.colleges.match"))
	assert.Error(t, ValidateActivityNaming("find-matching-colleges"))
}
