package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	t.Setenv("AETHER_DEBUG", "")

	assert.Equal(t, logrus.InfoLevel, New(&bytes.Buffer{}, false).GetLevel())
	assert.Equal(t, logrus.DebugLevel, New(&bytes.Buffer{}, true).GetLevel())

	t.Setenv("AETHER_DEBUG", "1")
	assert.Equal(t, logrus.DebugLevel, New(&bytes.Buffer{}, false).GetLevel())
}

func TestFieldsInOutput(t *testing.T) {
	t.Setenv("AETHER_DEBUG", "")

	var buf bytes.Buffer
	log := New(&buf, true)
	log.WithField("path", "scene.blend").Debug("registry updated")

	out := buf.String()
	assert.Contains(t, out, "registry updated")
	assert.Contains(t, out, "path=scene.blend")
	assert.NotContains(t, out, "time=")
}
