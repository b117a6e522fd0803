package cli

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/tkumagai/cinexpert/pkg/usecase/eval"
)

func TestParseTests(t *testing.T) {
	tests, err := parseTests("all")
	gt.NoError(t, err)
	gt.Equal(t, tests, eval.Tests{Quiz: true, Correlation: true, Classification: true})

	tests, err = parseTests("ALL")
	gt.NoError(t, err)
	gt.True(t, tests.Quiz)

	tests, err = parseTests("quiz")
	gt.NoError(t, err)
	gt.Equal(t, tests, eval.Tests{Quiz: true})

	tests, err = parseTests("correlation, classification")
	gt.NoError(t, err)
	gt.Equal(t, tests, eval.Tests{Correlation: true, Classification: true})

	_, err = parseTests("quiz,regression")
	gt.Error(t, err)

	_, err = parseTests("")
	gt.Error(t, err)
}
