package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoDefaults(t *testing.T) {
	bi := Info()
	assert.Equal(t, "dev", bi.Version)
	assert.Equal(t, "unknown", bi.Date)
	assert.NotEmpty(t, bi.Commit)
}

func TestInfoStamped(t *testing.T) {
	orig := commit
	t.Cleanup(func() { commit = orig })
	commit = "abc123"
	assert.Equal(t, "abc123", Info().Commit)
}
