package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedStringUnmarshal(t *testing.T) {
	cases := []struct {
		input string
		want  LocalizedString
	}{
		{`"Bruins"`, LocalizedString{Value: "Bruins", Valid: true}},
		{`{"default": "Canadiens", "fr": "Canadiens de Montréal"}`, LocalizedString{Value: "Canadiens", Valid: true}},
		{`{"fr": "Canadiens"}`, LocalizedString{}},
		{`{"default": 7}`, LocalizedString{}},
		{`null`, LocalizedString{}},
		{`12`, LocalizedString{}},
		{`""`, LocalizedString{Value: "", Valid: true}},
	}

	for _, tc := range cases {
		var got LocalizedString
		require.NoError(t, json.Unmarshal([]byte(tc.input), &got), tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestLocalizedStringOr(t *testing.T) {
	assert.Equal(t, "Boston", LocalizedString{Value: "Boston", Valid: true}.Or("Unknown City"))
	assert.Equal(t, "Unknown City", LocalizedString{}.Or("Unknown City"))
}

func TestDefaultTextUnmarshal(t *testing.T) {
	cases := []struct {
		input string
		want  DefaultText
	}{
		{`{"default": "Boston", "fr": "Boston"}`, DefaultText{Value: "Boston", Valid: true}},
		{`"Boston"`, DefaultText{}},
		{`{"fr": "Boston"}`, DefaultText{}},
		{`{"default": 1}`, DefaultText{}},
		{`null`, DefaultText{}},
	}

	for _, tc := range cases {
		var got DefaultText
		require.NoError(t, json.Unmarshal([]byte(tc.input), &got), tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestOptionalFieldsNeverFail(t *testing.T) {
	var input struct {
		Wins  OptionalInt   `json:"wins"`
		Pctg  OptionalFloat `json:"pctg"`
		Logo  OptionalText  `json:"logo"`
		Score OptionalInt   `json:"score"`
		Name  OptionalText  `json:"name"`
	}
	data := `{"wins": "ten", "pctg": [1], "logo": 3, "score": null, "name": "Bruins"}`

	require.NoError(t, json.Unmarshal([]byte(data), &input))
	assert.False(t, input.Wins.Valid)
	assert.False(t, input.Pctg.Valid)
	assert.False(t, input.Logo.Valid)
	assert.Nil(t, input.Logo.Ptr())
	assert.False(t, input.Score.Valid, "null is absent, not 0")
	assert.Equal(t, OptionalText{Value: "Bruins", Valid: true}, input.Name)
}

func TestOptionalIntReadsNumbers(t *testing.T) {
	var n OptionalInt
	require.NoError(t, json.Unmarshal([]byte(`2023020001`), &n))
	assert.Equal(t, OptionalInt{Value: 2023020001, Valid: true}, n)
	assert.Equal(t, 2023020001, n.Int())

	require.NoError(t, json.Unmarshal([]byte(`0`), &n))
	assert.True(t, n.Valid, "A reported 0 is a value")
}

func TestTransformErrorMessage(t *testing.T) {
	missing := &TransformError{Entity: "game", Field: "homeTeam", EntityID: "2023020001"}
	assert.Equal(t, `transform game 2023020001: missing required field "homeTeam"`, missing.Error())

	cause := errors.New("bad number")
	wrapped := fmt.Errorf("date 2024-01-15: %w", &TransformError{Entity: "team", Field: "standing", Err: cause})

	transformErr, ok := AsTransformError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "team", transformErr.Entity)
	assert.ErrorIs(t, wrapped, cause)

	_, ok = AsTransformError(cause)
	assert.False(t, ok)
}
