package appcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	c := New("wc_data", "output", nil)

	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, c.RunDate)
	assert.Equal(t, "wc_data", c.WorkDir)
	assert.Equal(t, "output", c.OutputDir)
	assert.NotNil(t, c.Logger)
}

func TestElapsedUnits(t *testing.T) {
	c := New("", "", nil)

	c.Started = time.Now().Add(-5 * time.Second)
	assert.Contains(t, c.Elapsed(), "seconds")

	c.Started = time.Now().Add(-5 * time.Minute)
	assert.Contains(t, c.Elapsed(), "minutes")

	c.Started = time.Now().Add(-5 * time.Hour)
	assert.Contains(t, c.Elapsed(), "hours")
}
