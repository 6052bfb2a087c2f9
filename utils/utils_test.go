package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteSize(t *testing.T) {
	assert.Equal(t, "0B", ByteSize(0).String())
	assert.Equal(t, "512B", ByteSize(512).String())
	assert.Equal(t, "2K", ByteSize(2048).String())
	assert.Equal(t, "1.5M", ByteSize(1536*1024).String())
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("process.BPMN", XMLExtensions))
	assert.True(t, HasExtension("export.twx", ArchiveExtensions))
	assert.False(t, HasExtension("notes.txt", XMLExtensions))
	assert.False(t, HasExtension("xml", XMLExtensions))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"split the largest", "views"}, WrapText("split the largest views", 17))
	assert.Equal(t, []string{""}, WrapText("   ", 20))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "abcd...", TruncateString("abcdefghij", 7))
	assert.Equal(t, "..", TruncateString("abcdef", 2))
}
