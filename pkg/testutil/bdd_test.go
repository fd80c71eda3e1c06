package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepsNestUnderKeywords(t *testing.T) {
	var names []string
	Given(t, "a minted token", func(t *testing.T) {
		names = append(names, t.Name())
		When(t, "it is burned", func(t *testing.T) {
			names = append(names, t.Name())
			Then(t, "it is gone", func(t *testing.T) { names = append(names, t.Name()) })
			And(t, "the count drops", func(t *testing.T) { names = append(names, t.Name()) })
		})
	})

	assert.Equal(t, []string{
		"TestStepsNestUnderKeywords/Given_a_minted_token",
		"TestStepsNestUnderKeywords/Given_a_minted_token/When_it_is_burned",
		"TestStepsNestUnderKeywords/Given_a_minted_token/When_it_is_burned/Then_it_is_gone",
		"TestStepsNestUnderKeywords/Given_a_minted_token/When_it_is_burned/And_the_count_drops",
	}, names)
}
