package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

const (
	// DefaultScore is used when a model response contains no parsable score
	// line. The value is policy, not heuristic: a missing score reads as
	// "middle of the scale", never as an error.
	DefaultScore = 5

	// MaxScore is the upper bound of the scoring scale.
	MaxScore = 10
)

// scorePattern matches the literal trailing score line models are instructed
// to emit, e.g. "Score: 7/10". Matching is case-insensitive.
var scorePattern = regexp.MustCompile(`(?i)score:\s*(\d+)\s*/\s*10`)

// ExtractScore pulls the integer score out of a model's feedback text.
// Text containing "Score: X/10" (any case) yields X clamped to [0,10];
// text without the pattern, or with an unparsable number, yields
// [DefaultScore]. ExtractScore never fails.
func ExtractScore(text string) int {
	match := scorePattern.FindStringSubmatch(text)
	if match == nil {
		return DefaultScore
	}

	score, err := strconv.Atoi(match[1])
	if err != nil {
		return DefaultScore
	}

	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// ParseStringAs attempts to parse a string into the specified type T.
// For primitive types (string, bool, int, uint, float) it performs direct
// conversion. For complex types (structs, maps, slices) it attempts JSON
// unmarshalling; if that fails, the content is repaired with jsonrepair and
// retried, since model output is frequently almost-JSON (single quotes,
// trailing commas, unquoted keys).
//
// Example:
//
//	type Verdict struct {
//	    Feedback string `json:"feedback"`
//	    Score    int    `json:"score"`
//	}
//
//	verdict, err := parse.ParseStringAs[Verdict](`{feedback: 'solid', score: 8}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T

	switch reflect.TypeFor[T]().Kind() {
	case reflect.String:
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil

	case reflect.Bool:
		value, err := strconv.ParseBool(content)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetBool(value)
		return result, nil

	case reflect.Float32, reflect.Float64:
		value, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetFloat(value)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetInt(value)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetUint(value)
		return result, nil

	default:
		err := json.Unmarshal([]byte(content), &result)
		if err == nil {
			return result, nil
		}

		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
		}

		if err = json.Unmarshal([]byte(repaired), &result); err != nil {
			return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (original content: %s, repaired: %s)", result, err, content, repaired)
		}
		return result, nil
	}
}
