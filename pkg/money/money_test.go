package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Money
		want string
	}{
		{in: 0, want: "0.00"},
		{in: 5, want: "0.05"},
		{in: 7250, want: "72.50"},
		{in: 23000, want: "230.00"},
		{in: -150, want: "-1.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestMoney_Percent_RoundsHalfUp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Money(3000), Money(20000).Percent(15))
	assert.Equal(t, Money(750), Money(5000).Percent(15))
	// 0.15 * 0.10 = 0.015 -> 0.02
	assert.Equal(t, Money(2), Money(10).Percent(15))
	// 0.15 * 0.03 = 0.0045 -> 0.00
	assert.Equal(t, Money(0), Money(3).Percent(15))
}

func TestMoney_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: 7250})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":72.50}`, string(b))

	var got struct {
		Price Money `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":19.99}`), &got))
	assert.Equal(t, Money(1999), got.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"price":"0.1"}`), &got))
	assert.Equal(t, Money(10), got.Price)

	require.Error(t, json.Unmarshal([]byte(`{"price":"abc"}`), &got))
}

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := Parse("200")
	require.NoError(t, err)
	assert.Equal(t, Money(20000), m)

	_, err = Parse("NaN")
	require.Error(t, err)
}
