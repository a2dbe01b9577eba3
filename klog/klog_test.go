package klog_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/joeycumines/go-zerokernel/klog"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscardNeverPanics(t *testing.T) {
	l := klog.Discard()
	assert.NotPanics(t, func() {
		klog.Info(l, klog.CategoryScheduler, "hello")
		klog.Warn(l, klog.CategoryPage, "low memory")
		klog.Error(l, klog.CategoryKernel, "oops", assert.AnError)
	})
}

func TestGlobalDefaultsToDiscard(t *testing.T) {
	klog.SetGlobal(nil)
	assert.NotPanics(t, func() {
		klog.Info(klog.Global(), klog.CategoryThread, "noop")
	})
}

func TestNewZerologWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	l := klog.NewZerolog(&buf, logiface.LevelInformational)

	klog.ThreadEvent(l, logiface.LevelInformational, 7, "worker", "thread started")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "thread started", decoded["message"])
	assert.Equal(t, "thread", decoded["category"])
	assert.Equal(t, "worker", decoded["thread_name"])
	assert.EqualValues(t, 7, decoded["thread_id"])
}

func TestSetGlobalRoutesThroughInstalledLogger(t *testing.T) {
	var buf bytes.Buffer
	l := klog.NewZerolog(&buf, logiface.LevelInformational)
	klog.SetGlobal(l)
	defer klog.SetGlobal(nil)

	klog.Info(klog.Global(), klog.CategoryPool, "recycled")
	assert.Contains(t, buf.String(), "recycled")
}
