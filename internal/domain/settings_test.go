package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_Merge_PartialPatch(t *testing.T) {
	s := DefaultSettings()
	on := true

	merged, optionsChanged := s.Merge(SettingsPatch{
		AllowOthersToShowEstimates: &on,
	})

	assert.False(t, optionsChanged)
	assert.True(t, merged.AllowOthersToShowEstimates)
	// Untouched fields survive.
	assert.Equal(t, s.EstimateOptions, merged.EstimateOptions)
	assert.Equal(t, s.TimerDurationSeconds, merged.TimerDurationSeconds)
	// Original value untouched (pure merge).
	assert.False(t, s.AllowOthersToShowEstimates)
}

func TestSettings_Merge_OptionsChanged(t *testing.T) {
	s := DefaultSettings()

	_, changed := s.Merge(SettingsPatch{EstimateOptions: []float64{1, 2, 3}})
	assert.True(t, changed)

	_, changed = s.Merge(SettingsPatch{EstimateOptions: append([]float64(nil), s.EstimateOptions...)})
	assert.False(t, changed, "identical options are not a change")

	_, changed = s.Merge(SettingsPatch{})
	assert.False(t, changed)
}

func TestSettings_Merge_TimerFields(t *testing.T) {
	s := DefaultSettings()
	on := true
	d := 90

	merged, _ := s.Merge(SettingsPatch{TimerEnabled: &on, TimerDurationSeconds: &d})

	assert.True(t, merged.TimerEnabled)
	assert.Equal(t, 90, merged.TimerDurationSeconds)
}
