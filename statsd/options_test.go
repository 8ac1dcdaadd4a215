package statsd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDefaultOptions(t *testing.T) {
	options, err := resolveOptions([]Option{})

	assert.NoError(t, err)
	assert.Equal(t, options.Flavor, DefaultFlavor)
	assert.Equal(t, options.PollInterval, DefaultPollInterval)
	assert.Equal(t, options.Step, DefaultStep)
	assert.Equal(t, options.PublishUnchanged, DefaultPublishUnchanged)
	assert.Equal(t, options.WriteTimeout, DefaultWriteTimeout)
	assert.Equal(t, options.NamePrefix, "")
	assert.Empty(t, options.CommonTags)
	assert.NotNil(t, options.NameMapper)
	assert.NotNil(t, options.Logger)
	assert.NotNil(t, options.Clock)
	assert.Nil(t, options.Silencer)
	assert.Nil(t, options.Writer)
}

func TestOptions(t *testing.T) {
	testFlavor := FlavorTelegraf
	testPollInterval := 5 * time.Second
	testStep := 30 * time.Second
	testPrefix := "myapp."
	testTags := []Tag{{Key: "region", Value: "eu"}}
	testLogger := zap.NewExample()
	testWriteTimeout := 1 * time.Minute

	options, err := resolveOptions([]Option{
		WithFlavor(testFlavor),
		WithPollInterval(testPollInterval),
		WithStep(testStep),
		WithPublishUnchanged(true),
		WithNamePrefix(testPrefix),
		WithCommonTags(testTags),
		WithLogger(testLogger),
		WithWriteTimeout(testWriteTimeout),
	})

	assert.NoError(t, err)
	assert.Equal(t, options.Flavor, testFlavor)
	assert.Equal(t, options.PollInterval, testPollInterval)
	assert.Equal(t, options.Step, testStep)
	assert.Equal(t, options.PublishUnchanged, true)
	assert.Equal(t, options.NamePrefix, testPrefix)
	assert.Equal(t, options.CommonTags, testTags)
	assert.Equal(t, options.Logger, testLogger)
	assert.Equal(t, options.WriteTimeout, testWriteTimeout)
}

func TestNamePrefixGetsTrailingDot(t *testing.T) {
	options, err := resolveOptions([]Option{WithNamePrefix("myapp")})

	assert.NoError(t, err)
	assert.Equal(t, options.NamePrefix, "myapp.")
}

func TestCommonTagsCopied(t *testing.T) {
	tags := []Tag{{Key: "region", Value: "eu"}}
	options, err := resolveOptions([]Option{WithCommonTags(tags)})

	assert.NoError(t, err)
	tags[0].Value = "us"
	assert.Equal(t, "eu", options.CommonTags[0].Value)
}

func TestOptionValidation(t *testing.T) {
	_, err := resolveOptions([]Option{WithPollInterval(0)})
	assert.Error(t, err)

	_, err = resolveOptions([]Option{WithStep(-time.Second)})
	assert.Error(t, err)

	_, err = resolveOptions([]Option{WithWriteTimeout(0)})
	assert.Error(t, err)

	_, err = resolveOptions([]Option{WithNameMapper(nil)})
	assert.Error(t, err)

	_, err = resolveOptions([]Option{WithLogger(nil)})
	assert.Error(t, err)

	_, err = resolveOptions([]Option{WithClock(nil)})
	assert.Error(t, err)
}
