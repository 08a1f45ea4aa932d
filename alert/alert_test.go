package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFeedKeepsMostRecent(t *testing.T) {
	f := NewFeed(2)
	f.Notify(Success, "one")
	f.Notify(Success, "two")
	f.Notify(Error, "three")

	got := f.Recent()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Text)
	assert.Equal(t, "three", got[1].Text)
	assert.Equal(t, Error, got[1].Severity)
}

func TestMultiFansOut(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	feed := NewFeed(10)
	n := Multi{feed, NewLog(zap.New(core))}

	n.Notify(Success, "Cập nhật size sản phẩm thành công")

	assert.Len(t, feed.Recent(), 1)
	entries := logs.FilterMessage("alert").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "success", entries[0].ContextMap()["severity"])
}
