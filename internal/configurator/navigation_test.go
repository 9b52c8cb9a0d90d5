package configurator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigator_ForwardAndBack(t *testing.T) {
	n := NewNavigator()
	assert.Equal(t, NavState{Step: 1, View: ViewExterior}, n.State())
	assert.False(t, n.Retreat(), "start state is terminal for retreat")

	moved, err := n.Advance(false)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, NavState{Step: 1, View: ViewInterior}, n.State())

	_, err = n.Advance(false)
	require.NoError(t, err)
	assert.Equal(t, 2, n.State().Step)

	_, err = n.Advance(true)
	require.NoError(t, err)
	assert.Equal(t, 3, n.State().Step)

	moved, err = n.Advance(true)
	require.NoError(t, err)
	assert.False(t, moved, "step 3 is terminal for advance")

	assert.True(t, n.Retreat())
	assert.Equal(t, 2, n.State().Step)
	assert.True(t, n.Retreat())
	assert.Equal(t, NavState{Step: 1, View: ViewInterior}, n.State())
	assert.True(t, n.Retreat())
	assert.Equal(t, NavState{Step: 1, View: ViewExterior}, n.State())
}

func TestNavigator_PostcodeGuard(t *testing.T) {
	n := NewNavigator()
	n.Advance(false)
	n.Advance(false)

	moved, err := n.Advance(false)
	assert.ErrorIs(t, err, ErrInvalidPostcode)
	assert.False(t, moved)
	assert.Equal(t, 2, n.State().Step)
	assert.True(t, n.State().PostcodeError)

	_, err = n.Advance(true)
	require.NoError(t, err)
	assert.False(t, n.State().PostcodeError)
}

func TestNavigator_SwitchViewOnlyOnFirstStep(t *testing.T) {
	n := NewNavigator()
	assert.True(t, n.SwitchView(ViewInterior))
	assert.False(t, n.SwitchView(ViewInterior))
	assert.False(t, n.SwitchView(View("top")))

	n.Advance(false)
	assert.False(t, n.SwitchView(ViewExterior))
}

func TestValidPostcode(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		norm  string
	}{
		{"1234AB", true, "1234AB"},
		{"1234 AB", true, "1234AB"},
		{" 1234ab ", true, "1234AB"},
		{"12AB34", false, "12AB34"},
		{"0123AB", false, "0123AB"},
		{"1234  AB", false, "1234  AB"},
		{"1234A", false, "1234A"},
		{"", false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidPostcode(tc.in))
			assert.Equal(t, tc.norm, NormalizePostcode(tc.in))
		})
	}
}

func TestSession_AdvanceNeedsPostcodeAtStepTwo(t *testing.T) {
	tests := []struct {
		postcode string
		wantErr  error
		wantStep int
	}{
		{"1234AB", nil, 3},
		{"12AB34", ErrInvalidPostcode, 2},
	}
	for _, tc := range tests {
		t.Run(tc.postcode, func(t *testing.T) {
			s := newGardenRoom(t)
			require.NoError(t, s.Advance())
			require.NoError(t, s.Advance())
			require.Equal(t, 2, s.Navigation().Step)

			s.SetPostcode(tc.postcode)
			err := s.Advance()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantStep, s.Navigation().Step)
		})
	}
}
