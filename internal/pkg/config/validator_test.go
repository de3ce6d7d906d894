package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"hourly", "0 * * * *", false},
		{"every 15 minutes", "*/15 * * * *", false},
		{"weekdays at 9:30", "30 9 * * 1-5", false},
		{"list", "15,45 */2 * * 1,3,5", false},
		{"descriptor", "@hourly", false},
		{"empty", "", true},
		{"too few fields", "0 *", true},
		{"minute out of range", "60 * * * *", true},
		{"garbage", "hourly please", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.NoError(t, ValidateTimezone("CET"))
	assert.NoError(t, ValidateTimezone("Europe/Berlin"))

	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Invalid/Zone"))
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Hour))
	assert.NoError(t, ValidateDuration(time.Second, time.Second, time.Hour))
	assert.NoError(t, ValidateDuration(time.Hour, time.Second, time.Hour))

	assert.ErrorContains(t, ValidateDuration(time.Millisecond, time.Second, time.Hour), "below minimum")
	assert.ErrorContains(t, ValidateDuration(2*time.Hour, time.Second, time.Hour), "exceeds maximum")
	assert.ErrorContains(t, ValidateDuration(time.Minute, time.Hour, time.Second), "invalid range")
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(5, 1, 10))
	assert.NoError(t, ValidateIntRange(1, 1, 10))
	assert.Error(t, ValidateIntRange(0, 1, 10))
	assert.Error(t, ValidateIntRange(11, 1, 10))
	assert.ErrorContains(t, ValidateIntRange(5, 10, 1), "invalid range")
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort(9090))
	assert.Error(t, ValidatePort(0))
	assert.Error(t, ValidatePort(70000))
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}

func TestOneOf(t *testing.T) {
	v := OneOf("wallclock", "max-item")
	assert.NoError(t, v("wallclock"))
	assert.NoError(t, v("max-item"))
	assert.ErrorContains(t, v("newest"), "must be one of")
}
