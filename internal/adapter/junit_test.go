package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJUnitXMLMixedOutcomes(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?>
<testsuites>
  <testsuite name="suite" tests="3">
    <testcase classname="pkg" name="ok" time="0.01"/>
    <testcase classname="pkg" name="broken" time="0.02">
      <failure message="assertion failed">expected 1, got 2</failure>
    </testcase>
    <testcase classname="pkg" name="skipped" time="0">
      <skipped/>
    </testcase>
  </testsuite>
</testsuites>`)

	result, err := parseJUnitXML(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.False(t, result.Success)
}

func TestParseJUnitXMLBareTestsuiteRoot(t *testing.T) {
	doc := []byte(`<testsuite name="suite" tests="1">
  <testcase classname="pkg" name="ok" time="0.01"/>
</testsuite>`)

	result, err := parseJUnitXML(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.True(t, result.Success)
}
