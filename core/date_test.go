package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "empty", input: "", want: Date{}},
		{name: "blank", input: "  ", want: Date{}},
		{name: "valid", input: "2024-03-09", want: NewDate(2024, time.March, 9)},
		{name: "padded", input: " 2024-03-09 ", want: NewDate(2024, time.March, 9)},
		{name: "wrong layout", input: "09/03/2024", wantErr: true},
		{name: "impossible day", input: "2024-02-30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(payload{Date: NewDate(2023, time.December, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2023-12-01"}`, string(data))

	data, err = json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":null}`, string(data))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2023-12-01"}`), &p))
	assert.Equal(t, NewDate(2023, time.December, 1), p.Date)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"yesterday"}`), &p))
}

func TestDate_Scan(t *testing.T) {
	want := NewDate(2022, time.July, 14)
	tests := []struct {
		name string
		src  interface{}
		want Date
	}{
		{name: "nil", src: nil, want: Date{}},
		{name: "string", src: "2022-07-14", want: want},
		{name: "bytes", src: []byte("2022-07-14"), want: want},
		{name: "timestamp text", src: "2022-07-14T00:00:00Z", want: want},
		{name: "time", src: time.Date(2022, time.July, 14, 15, 4, 5, 0, time.UTC), want: want},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, tt.want, d)
		})
	}

	var d Date
	assert.Error(t, d.Scan(42))
}

func TestDate_Value(t *testing.T) {
	v, err := NewDate(2021, time.January, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, "2021-01-02", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
