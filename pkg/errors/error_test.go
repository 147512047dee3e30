package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(200001, "unsupported source")
	err := fmt.Errorf("crawl: %w", Wrap(200001, "不支持的来源: reddit", nil))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, New(200002, "other")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(200002, "fetch failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "code=200002, msg=fetch failed: connection reset", err.Error())
}

func TestCode(t *testing.T) {
	assert.Equal(t, 200004, Code(fmt.Errorf("run: %w", New(200004, "locked"))))
	assert.Equal(t, 0, Code(errors.New("plain")))
	assert.Equal(t, 0, Code(nil))
}
