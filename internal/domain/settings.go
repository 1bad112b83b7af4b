package domain

// TimerDurations is the fixed set of selectable timer lengths, in seconds.
var TimerDurations = []int{30, 60, 90, 120}

// DefaultEstimateOptions is the default deck.
var DefaultEstimateOptions = []float64{1, 2, 3, 5, 8, 13, 21}

// Settings are the room options the admin controls. The four Allow* flags are
// delegated permissions: each extends one admin right to every participant.
// Settings changes themselves are never delegable.
type Settings struct {
	EstimateOptions              []float64 `json:"estimateOptions"`
	AllowOthersToShowEstimates   bool      `json:"allowOthersToShowEstimates"`
	AllowOthersToDeleteEstimates bool      `json:"allowOthersToDeleteEstimates"`
	AllowOthersToClearUsers      bool      `json:"allowOthersToClearUsers"`
	AllowOthersToClearEstimates  bool      `json:"allowOthersToClearEstimates"`
	TimerEnabled                 bool      `json:"timerEnabled"`
	TimerDurationSeconds         int       `json:"timerDurationSeconds"`
	ShowAverage                  bool      `json:"showAverage"`
	ShowUserPresence             bool      `json:"showUserPresence"`
}

func DefaultSettings() Settings {
	opts := make([]float64, len(DefaultEstimateOptions))
	copy(opts, DefaultEstimateOptions)
	return Settings{
		EstimateOptions:      opts,
		TimerEnabled:         false,
		TimerDurationSeconds: 60,
		ShowAverage:          true,
		ShowUserPresence:     true,
	}
}

// SettingsPatch is a partial settings update: one optional field per setting.
// Nil means "leave unchanged".
type SettingsPatch struct {
	EstimateOptions              []float64 `json:"estimateOptions,omitempty" validate:"omitempty,min=1,dive,gt=0"`
	AllowOthersToShowEstimates   *bool     `json:"allowOthersToShowEstimates,omitempty"`
	AllowOthersToDeleteEstimates *bool     `json:"allowOthersToDeleteEstimates,omitempty"`
	AllowOthersToClearUsers      *bool     `json:"allowOthersToClearUsers,omitempty"`
	AllowOthersToClearEstimates  *bool     `json:"allowOthersToClearEstimates,omitempty"`
	TimerEnabled                 *bool     `json:"timerEnabled,omitempty"`
	TimerDurationSeconds         *int      `json:"timerDurationSeconds,omitempty" validate:"omitempty,oneof=30 60 90 120"`
	ShowAverage                  *bool     `json:"showAverage,omitempty"`
	ShowUserPresence             *bool     `json:"showUserPresence,omitempty"`
}

// Merge applies the patch to s and reports whether the estimate options
// changed. Pure function: s is the receiver value, the merged copy is returned.
func (s Settings) Merge(p SettingsPatch) (Settings, bool) {
	optionsChanged := false
	if p.EstimateOptions != nil && !equalOptions(s.EstimateOptions, p.EstimateOptions) {
		s.EstimateOptions = append([]float64(nil), p.EstimateOptions...)
		optionsChanged = true
	}
	if p.AllowOthersToShowEstimates != nil {
		s.AllowOthersToShowEstimates = *p.AllowOthersToShowEstimates
	}
	if p.AllowOthersToDeleteEstimates != nil {
		s.AllowOthersToDeleteEstimates = *p.AllowOthersToDeleteEstimates
	}
	if p.AllowOthersToClearUsers != nil {
		s.AllowOthersToClearUsers = *p.AllowOthersToClearUsers
	}
	if p.AllowOthersToClearEstimates != nil {
		s.AllowOthersToClearEstimates = *p.AllowOthersToClearEstimates
	}
	if p.TimerEnabled != nil {
		s.TimerEnabled = *p.TimerEnabled
	}
	if p.TimerDurationSeconds != nil {
		s.TimerDurationSeconds = *p.TimerDurationSeconds
	}
	if p.ShowAverage != nil {
		s.ShowAverage = *p.ShowAverage
	}
	if p.ShowUserPresence != nil {
		s.ShowUserPresence = *p.ShowUserPresence
	}
	return s, optionsChanged
}

func equalOptions(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
