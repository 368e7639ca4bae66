package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hydrodispatch/core/model"
)

func TestPersistence(t *testing.T) {
	obs := model.PriceSeries{10, 20, 30, 40, 50, 60}
	got, err := Persistence{Period: 3}.Forecast(obs)
	require.NoError(t, err)
	assert.Equal(t, model.PriceSeries{10, 10, 15, 10, 20, 30}, got)
}

func TestPersistenceDefaultPeriod(t *testing.T) {
	obs := make(model.PriceSeries, 48)
	for i := range obs {
		obs[i] = float64(i % 24)
	}
	got, err := Persistence{}.Forecast(obs)
	require.NoError(t, err)
	assert.Equal(t, obs[24:], got[24:])
	assert.Len(t, got, 48)
}

func TestPersistenceRejectsBadPrices(t *testing.T) {
	_, err := Persistence{}.Forecast(model.PriceSeries{1, -2})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = Persistence{}.Forecast(nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestMockEngine(t *testing.T) {
	got, err := MockEngine{Prices: model.PriceSeries{1, 2}}.Forecast(make(model.PriceSeries, 5))
	require.NoError(t, err)
	assert.Equal(t, model.PriceSeries{1, 2, 1, 2, 1}, got)

	_, err = MockEngine{}.Forecast(model.PriceSeries{1})
	assert.Error(t, err)
}
