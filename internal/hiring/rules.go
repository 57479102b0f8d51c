package hiring

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Condition is the comparison a Rule applies to the answer it depends on.
type Condition string

const (
	CondEquals    Condition = "equals"
	CondNotEquals Condition = "notEquals"
	CondIncludes  Condition = "includes"
	CondAnswered  Condition = "answered"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case CondEquals, CondNotEquals, CondIncludes, CondAnswered:
		return true
	}
	return false
}

// Rule shows a question only while the answer to DependsOn satisfies
// Condition against Value.
type Rule struct {
	DependsOn string    `json:"dependsOn" yaml:"dependsOn"`
	Condition Condition `json:"condition" yaml:"condition"`
	Value     string    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Holds evaluates r against a single answer (nil when unanswered).
func (r Rule) Holds(answer any) bool {
	switch r.Condition {
	case CondAnswered:
		return !isEmptyAnswer(answer)
	case CondEquals:
		return answerEquals(answer, r.Value)
	case CondNotEquals:
		return !answerEquals(answer, r.Value)
	case CondIncludes:
		if list, ok := answerList(answer); ok {
			for _, v := range list {
				if v == r.Value {
					return true
				}
			}
			return false
		}
		s, ok := answerText(answer)
		return ok && strings.Contains(s, r.Value)
	}
	return true
}

// Visibility resolves which questions of a are shown for the given responses.
// Answers to hidden questions count as unanswered when evaluating rules that
// depend on them, and so does a dependency that is still being resolved
// (a cycle).
func Visibility(a Assessment, r Responses) map[string]bool {
	byID := map[string]Question{}
	for _, q := range a.Questions() {
		byID[q.ID] = q
	}

	visible := make(map[string]bool, len(byID))
	resolving := map[string]bool{}
	var resolve func(id string) bool
	resolve = func(id string) bool {
		if v, ok := visible[id]; ok {
			return v
		}
		q, ok := byID[id]
		if !ok {
			return false
		}
		if resolving[id] {
			return false
		}
		resolving[id] = true
		defer delete(resolving, id)

		shown := true
		if rule := q.Conditional; rule != nil {
			var answer any
			if resolve(rule.DependsOn) {
				answer = r[rule.DependsOn]
			}
			shown = rule.Holds(answer)
		}
		visible[id] = shown
		return shown
	}
	for id := range byID {
		resolve(id)
	}
	return visible
}

// ValidateResponses returns a message per offending question id. Hidden
// questions are never validated. An empty map means r can be submitted.
func ValidateResponses(a Assessment, r Responses) map[string]string {
	errs := map[string]string{}
	visible := Visibility(a, r)

	for _, q := range a.Questions() {
		if !visible[q.ID] {
			continue
		}
		answer, present := r[q.ID]
		if !present || isEmptyAnswer(answer) {
			if q.Required {
				errs[q.ID] = "This field is required"
			}
			continue
		}

		switch {
		case q.Type.isText() || q.Type == FileUpload:
			s, ok := answerText(answer)
			if !ok {
				errs[q.ID] = "Expected a text answer"
			} else if q.Type.isText() && q.MaxLength > 0 && utf8.RuneCountInString(s) > q.MaxLength {
				errs[q.ID] = fmt.Sprintf("Maximum %d characters allowed", q.MaxLength)
			}
		case q.Type == Numeric:
			n, ok := answerNumber(answer)
			if !ok || (q.Min != nil && n < *q.Min) || (q.Max != nil && n > *q.Max) {
				errs[q.ID] = fmt.Sprintf("Value must be between %s and %s", bound(q.Min), bound(q.Max))
			}
		case q.Type == SingleChoice:
			s, ok := answerText(answer)
			if !ok || !contains(q.Options, s) {
				errs[q.ID] = "Choose one of the listed options"
			}
		case q.Type == MultiChoice:
			list, ok := answerList(answer)
			if !ok {
				errs[q.ID] = "Expected a list of options"
				break
			}
			for _, v := range list {
				if !contains(q.Options, v) {
					errs[q.ID] = fmt.Sprintf("Unknown option %q", v)
					break
				}
			}
		}
	}
	return errs
}

func bound(f *float64) string {
	if f == nil {
		return "no limit"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isEmptyAnswer(v any) bool {
	switch a := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(a) == ""
	case []any:
		return len(a) == 0
	case []string:
		return len(a) == 0
	}
	return false
}

func answerText(v any) (string, bool) {
	switch a := v.(type) {
	case string:
		return a, true
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64), true
	case int:
		return strconv.Itoa(a), true
	case bool:
		return strconv.FormatBool(a), true
	}
	return "", false
}

func answerList(v any) ([]string, bool) {
	switch a := v.(type) {
	case []string:
		return a, true
	case []any:
		out := make([]string, 0, len(a))
		for _, item := range a {
			s, ok := answerText(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func answerNumber(v any) (float64, bool) {
	switch a := v.(type) {
	case float64:
		return a, true
	case int:
		return float64(a), true
	case int64:
		return float64(a), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		return f, err == nil
	}
	return 0, false
}

func answerEquals(v any, want string) bool {
	if list, ok := answerList(v); ok {
		return len(list) == 1 && list[0] == want
	}
	s, ok := answerText(v)
	return ok && s == want
}
