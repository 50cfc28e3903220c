package retention

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// documentSchema describes the normalized policy document. Key aliases are
// folded onto keep_every and duration before validation.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["rules"],
  "additionalProperties": false,
  "properties": {
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["keep_every"],
        "additionalProperties": false,
        "properties": {
          "keep_every": {"type": ["string", "integer"]},
          "duration": {"type": ["string", "integer", "null"]}
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("inmemory://retention-policy.json", documentSchema)

// keyAliases maps folded key names onto canonical document keys.
var keyAliases = map[string]string{
	"keepevery":      "keep_every",
	"sampleinterval": "keep_every",
	"every":          "keep_every",
	"duration":       "duration",
	"validitywindow": "duration",
	"window":         "duration",
	"rules":          "rules",
}

// LoadPolicyFile reads and parses a policy document from disk.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read retention policy file %q: %w", path, err)
	}
	return ParsePolicy(data, path)
}

// ParsePolicy parses a JSON or YAML policy document. The document is either a
// list of rules or an object with a "rules" list; each rule has a keep_every
// interval and an optional duration window, where null or absent means
// unbounded. Keys are matched case-insensitively, ignoring '_' and '-', so
// {"Rules": [{"KeepEvery": ..., "Duration": ...}]} and
// {"sampleInterval": ..., "validityWindow": ...} are both accepted.
//
// Every problem in the document is reported in one *PolicyConfigurationError.
func ParsePolicy(data []byte, source string) (*Policy, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &PolicyConfigurationError{
			Source:     source,
			Violations: []RuleViolation{{Index: -1, Message: fmt.Sprintf("failed to parse document: %v", err)}},
		}
	}

	doc, err := normalizeDocument(raw)
	if err != nil {
		return nil, &PolicyConfigurationError{
			Source:     source,
			Violations: []RuleViolation{{Index: -1, Message: err.Error()}},
		}
	}

	violations := schemaViolations(doc)

	rules, skip, parseViolations := decodeRules(doc)
	violations = append(violations, parseViolations...)

	if len(rules) > 0 {
		for _, v := range validateRules(rules) {
			if skip[v.Index] && v.Field == "keep_every" {
				continue
			}
			violations = append(violations, v)
		}
	}

	if len(violations) > 0 {
		return nil, &PolicyConfigurationError{Source: source, Violations: violations}
	}

	return NewPolicy(rules)
}

// normalizeDocument folds key aliases and round-trips through JSON so the
// result only contains JSON value types.
func normalizeDocument(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case nil:
		return nil, errors.New("document is empty")
	case []interface{}:
		raw = map[string]interface{}{"rules": v}
	case map[string]interface{}:
	default:
		return nil, fmt.Errorf("document must be a list of rules or an object with a rules list, got %T", raw)
	}

	folded := foldKeys(raw)

	data, err := json.Marshal(folded)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	return out, nil
}

// foldKeys renames aliased keys at the document and rule levels.
func foldKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			key := k
			if canonical, ok := keyAliases[foldKey(k)]; ok {
				key = canonical
			}
			out[key] = foldKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = foldKeys(val)
		}
		return out
	default:
		return v
	}
}

func foldKey(k string) string {
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "_", "")
	return strings.ReplaceAll(k, "-", "")
}

func schemaViolations(doc interface{}) []RuleViolation {
	err := compiledSchema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []RuleViolation{{Index: -1, Message: err.Error()}}
	}

	var violations []RuleViolation
	collectLeaves(ve, &violations)
	if len(violations) == 0 {
		violations = append(violations, RuleViolation{Index: -1, Message: ve.Message})
	}
	return violations
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]RuleViolation) {
	if len(ve.Causes) == 0 {
		index, field := locate(ve.InstanceLocation)
		*out = append(*out, RuleViolation{Index: index, Field: field, Message: ve.Message})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// locate maps a JSON pointer such as /rules/2/duration onto a rule index
// and field.
func locate(pointer string) (int, string) {
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	if len(parts) < 2 || parts[0] != "rules" {
		return -1, ""
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return -1, ""
	}
	if len(parts) > 2 {
		return index, parts[2]
	}
	return index, ""
}

// decodeRules converts well-shaped rule entries into Rules. Shape problems are
// left to the schema; only unparseable durations are reported here. skip marks
// rules without a usable interval so that rule validation does not report
// them a second time.
func decodeRules(doc interface{}) ([]Rule, map[int]bool, []RuleViolation) {
	root, _ := doc.(map[string]interface{})
	items, _ := root["rules"].([]interface{})

	rules := make([]Rule, len(items))
	skip := make(map[int]bool)
	var violations []RuleViolation

	for i, item := range items {
		rules[i].Window = Unbounded

		entry, ok := item.(map[string]interface{})
		if !ok {
			skip[i] = true
			continue
		}

		every, ok, err := durationValue(entry["keep_every"])
		switch {
		case err != nil:
			violations = append(violations, RuleViolation{Index: i, Field: "keep_every", Message: err.Error()})
			skip[i] = true
		case !ok:
			skip[i] = true
		default:
			rules[i].KeepEvery = every
		}

		window, ok, err := durationValue(entry["duration"])
		switch {
		case err != nil:
			violations = append(violations, RuleViolation{Index: i, Field: "duration", Message: err.Error()})
		case ok:
			rules[i].Window = window
		}
	}

	return rules, skip, violations
}

// durationValue decodes a JSON value as a duration. Numbers are whole days.
// ok is false for null, absent or wrongly typed values.
func durationValue(v interface{}) (time.Duration, bool, error) {
	switch t := v.(type) {
	case string:
		d, err := ParseDuration(t)
		if err != nil {
			return 0, false, err
		}
		return d, true, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, false, fmt.Errorf("number of days must be whole, got %v", t)
		}
		if math.Abs(t) > float64(math.MaxInt64/int64(Day)) {
			return 0, false, fmt.Errorf("invalid duration %v: %w", t, errOutOfRange)
		}
		return time.Duration(t) * Day, true, nil
	default:
		return 0, false, nil
	}
}
