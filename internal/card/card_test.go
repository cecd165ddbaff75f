package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullName(t *testing.T) {
	tests := []struct {
		name   string
		family string
		given  string
		want   string
	}{
		{"both parts", "Mustermann", "Max", "Max Mustermann"},
		{"family only", "Mustermann", "", "Mustermann"},
		{"given only", "", "Max", "Max"},
		{"both empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Card{FamilyName: tt.family, GivenName: tt.given}
			assert.Equal(t, tt.want, c.FullName())
		})
	}
}

func TestViewStateToggleExpanded(t *testing.T) {
	v := ViewState{Card: Card{ID: 7}, Expanded: false}

	toggled := v.ToggleExpanded()
	assert.True(t, toggled.Expanded)
	assert.Equal(t, int64(7), toggled.ID)

	// value semantics: the original is untouched
	assert.False(t, v.Expanded)

	assert.False(t, toggled.ToggleExpanded().Expanded)
}
