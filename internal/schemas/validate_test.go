package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidProducts(t *testing.T) {
	payload := `{"products": [{"product_name": "Acme Forecast", "description": "Forecasting platform."}]}`
	assert.NoError(t, Validate("products", payload))
}

func TestValidate_MissingRequiredField(t *testing.T) {
	payload := `{"products": [{"description": "no name"}]}`
	err := Validate("products", payload)
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.NotEmpty(t, valErr.Errors)
	assert.Contains(t, err.Error(), "product_name")
}

func TestValidate_EmptyArrayRejected(t *testing.T) {
	assert.Error(t, Validate("personas", `{"personas": []}`))
}

func TestValidate_AllKindsEmbedded(t *testing.T) {
	valid := map[string]string{
		"products": `{"products": [{"product_name": "P", "description": "D"}]}`,
		"personas": `{"personas": [{"persona_name": "Enterprise Sales Leadership"}]}`,
		"mappings": `{"personas_with_mappings": [{"persona_name": "P", "mappings": [{"pain_point": "a", "value_proposition": "b"}]}]}`,
		"sequences": `{"sequences": [{"name": "S", "persona_name": "P", "objective": "book a call",
			"touches": [{"sort_order": 1, "touch_type": "email", "timing_days": 0, "objective": "intro", "content_suggestion": "hello"}]}]}`,
	}
	for name, payload := range valid {
		assert.NoError(t, Validate(name, payload), name)
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("widgets", `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidate_MalformedJSON(t *testing.T) {
	assert.Error(t, Validate("products", `{not json`))
}
