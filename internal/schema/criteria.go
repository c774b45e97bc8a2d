package schema

import (
	"regexp"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Criterion decides whether an attribute value is acceptable.
type Criterion interface {
	Accept(value string) bool
}

// CriterionFunc adapts a function to Criterion.
type CriterionFunc func(string) bool

func (f CriterionFunc) Accept(value string) bool { return f(value) }

// Any accepts every value.
var Any Criterion = CriterionFunc(func(string) bool { return true })

// namedCriteria are the criteria attributes may name in the schema.
var namedCriteria = map[string]*regexp.Regexp{
	"integer":         bluemonday.Integer,
	"number":          bluemonday.Number,
	"numberOrPercent": bluemonday.NumberOrPercent,
	"tokens":          bluemonday.SpaceSeparatedTokens,
	"paragraph":       bluemonday.Paragraph,
	"iso8601":         bluemonday.ISO8601,
}

// Matching accepts values matched by re.
func Matching(re *regexp.Regexp) Criterion {
	return CriterionFunc(re.MatchString)
}

// OneOf accepts the given values, ignoring case.
func OneOf(values ...string) Criterion {
	return CriterionFunc(func(v string) bool {
		return slices.ContainsFunc(values, func(allowed string) bool {
			return strings.EqualFold(allowed, v)
		})
	})
}

// AllOf accepts values every criterion accepts.
func AllOf(criteria ...Criterion) Criterion {
	return CriterionFunc(func(v string) bool {
		for _, c := range criteria {
			if !c.Accept(v) {
				return false
			}
		}
		return true
	})
}

// AnyOf accepts values some criterion accepts.
func AnyOf(criteria ...Criterion) Criterion {
	return CriterionFunc(func(v string) bool {
		return slices.ContainsFunc(criteria, func(c Criterion) bool { return c.Accept(v) })
	})
}
