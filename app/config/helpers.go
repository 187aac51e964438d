package config

import (
	"time"
)

// GetCooldown returns the provider error cooldown as time.Duration
func (s *SourceSettings) GetCooldown() time.Duration {
	if s.Cooldown <= 0 {
		return 90 * time.Second // default cool-down between retries
	}
	return time.Duration(s.Cooldown) * time.Second
}

// GetTimeout returns the classification request timeout as time.Duration
func (m *ModelSettings) GetTimeout() time.Duration {
	if m.Timeout <= 0 {
		return 60 * time.Second // default 60 seconds
	}
	return time.Duration(m.Timeout) * time.Second
}

// LabelText maps a label index to its configured text. Unknown labels
// fall back to "Other" so a model update cannot break a running job.
func (j *Job) LabelText(label int) string {
	if text, ok := j.Labels[label]; ok {
		return text
	}
	return "Other"
}
