package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// StripFences removes a surrounding markdown code fence that chat models
// sometimes wrap around JSON output, despite instructions.
func StripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}

// ParseModelOutput decodes one model response into a candidate record and
// shape-checks it against the schema. Anything that is not a JSON object of
// the right shape comes back as a malformed-output error; missing fields are
// deliberately NOT an error here, the validation stage reports those per
// field.
func ParseModelOutput(schemaMap map[string]any, raw []byte) (map[string]any, []byte, error) {
	cleaned := StripFences(raw)
	if len(cleaned) == 0 {
		return nil, cleaned, Malformed(fmt.Errorf("empty model output"))
	}
	var record map[string]any
	if err := json.Unmarshal(cleaned, &record); err != nil {
		return nil, cleaned, Malformed(fmt.Errorf("decode model output: %w", err))
	}
	if err := ValidateJSONAgainstSchema(schemaMap, cleaned); err != nil {
		return nil, cleaned, Malformed(err)
	}
	return record, cleaned, nil
}
