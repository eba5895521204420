package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/whalefeed/whalefeed/internal/filter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// fakeFilterService records applied predicates for assertions.
type fakeFilterService struct {
	applied  *filter.Predicate
	current  filter.Predicate
	applyErr error
	resetErr error
	resets   int
}

func (f *fakeFilterService) Apply(_ context.Context, pred filter.Predicate) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = &pred
	return nil
}

func (f *fakeFilterService) Reset(context.Context) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resets++
	return nil
}

func (f *fakeFilterService) Current(context.Context) filter.Predicate {
	return f.current
}

func runFilters(t *testing.T, svc *fakeFilterService, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := &cli.Command{
		Writer:   &out,
		Commands: []*cli.Command{filtersCommand(svc)},
	}

	err := app.Run(t.Context(), append([]string{"test"}, args...))
	return out.String(), err
}

func TestSetFiltersCommand(t *testing.T) {
	t.Run("builds the predicate from flags and applies it", func(t *testing.T) {
		svc := &fakeFilterService{}

		_, err := runFilters(t, svc, "filters", "set",
			"--search", "bonk",
			"--type", "buy",
			"--hotness", "high",
			"--tag", "whale",
			"--tag", "insider",
			"--min-amount", ">$1,000",
			"--age-max", "120",
			"--market-cap-min", "50000",
		)
		require.NoError(t, err)

		require.NotNil(t, svc.applied)
		applied := *svc.applied
		assert.Equal(t, "bonk", applied.Search)
		assert.Equal(t, filter.TypeBuy, applied.Type)
		assert.Equal(t, filter.HotnessHigh, applied.Hotness)
		assert.Equal(t, []string{"whale", "insider"}, applied.Tags)
		assert.Equal(t, ">$1,000", applied.MinAmount)
		require.NotNil(t, applied.AgeMax)
		assert.InDelta(t, 120, *applied.AgeMax, 0.001)
		require.NotNil(t, applied.MarketCapMin)
		assert.InDelta(t, 50000, *applied.MarketCapMin, 0.001)
		assert.Nil(t, applied.AgeMin, "unset bounds stay inactive")
		assert.Nil(t, applied.MarketCapMax)
	})

	t.Run("propagates validation failures", func(t *testing.T) {
		svc := &fakeFilterService{applyErr: errors.New("invalid predicate")}

		_, err := runFilters(t, svc, "filters", "set", "--hotness", "scorching")

		assert.Error(t, err)
	})
}

func TestShowFiltersCommand(t *testing.T) {
	svc := &fakeFilterService{current: filter.Predicate{Search: "bonk", Type: filter.TypeBuy}}

	out, err := runFilters(t, svc, "filters", "show")
	require.NoError(t, err)

	assert.Contains(t, out, `"search": "bonk"`)
	assert.Contains(t, out, `"type": "buy"`)
}

func TestResetFiltersCommand(t *testing.T) {
	t.Run("clears the persisted predicate", func(t *testing.T) {
		svc := &fakeFilterService{}

		_, err := runFilters(t, svc, "filters", "reset")
		require.NoError(t, err)

		assert.Equal(t, 1, svc.resets)
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		svc := &fakeFilterService{resetErr: errors.New("storage down")}

		_, err := runFilters(t, svc, "filters", "reset")

		assert.Error(t, err)
	})
}
