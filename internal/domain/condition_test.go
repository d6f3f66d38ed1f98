package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCondition(t *testing.T) {
	tests := []struct {
		name    string
		precip  float64
		tempMin float64
		tempMax float64
		want    ConditionCode
	}{
		{"heavy rain wins over snow", 25, -5, 10, HeavyRain},
		{"heavy rain threshold is exclusive", 20, 5, 15, Rain},
		{"snow when cold and wet", 1, -5, 1.5, Snow},
		{"rain when wet and mild", 0.2, 5, 12, Rain},
		{"extreme heat", 0, 22, 36, ExtremeHeat},
		{"extreme heat checked before extreme cold", 0, -11, 36, ExtremeHeat},
		{"extreme cold", 0, -12, 0, ExtremeCold},
		{"fog when near freezing and dry", 0, 1, 4, Fog},
		{"cloudy on narrow spread", 0, 3, 4, Cloudy},
		{"partly cloudy", 0, 10, 15, PartlyCloudy},
		{"clear on wide spread", 0, 10, 30, Clear},
		{"spread of exactly 3 is partly cloudy", 0, 10, 13, PartlyCloudy},
		{"spread of exactly 7 is clear", 0, 10, 17, Clear},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyCondition(tc.precip, tc.tempMin, tc.tempMax))
		})
	}
}

func TestClassifyCondition_Deterministic(t *testing.T) {
	first := ClassifyCondition(25, -5, 10)
	for range 100 {
		assert.Equal(t, first, ClassifyCondition(25, -5, 10))
	}
	assert.Equal(t, ConditionCode(4), first)
}

func TestConditionCode_String(t *testing.T) {
	assert.Equal(t, "Clear", Clear.String())
	assert.Equal(t, "Heavy Rain", HeavyRain.String())
	assert.Equal(t, "Thunderstorm", Thunderstorm.String())
	assert.Equal(t, "Extreme Cold", ExtremeCold.String())
	assert.Equal(t, "Unknown", ConditionCode(10).String())
	assert.True(t, ExtremeCold.Valid())
	assert.False(t, ConditionCode(-1).Valid())
}
