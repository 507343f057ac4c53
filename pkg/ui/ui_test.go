package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"firecrawl/pkg/config"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(title, message string) error {
	return m.Called(title, message).Error(0)
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuiet(false)
	})
	return &buf
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuiet(true)

	PrintSuccess("saved")
	PrintInfo("Output", "/tmp")
	assert.Empty(t, buf.String())

	PrintError("Failed", errors.New("boom"))
	assert.Contains(t, buf.String(), "Failed: boom")
}

func TestNotifierRespectsSettings(t *testing.T) {
	captureOutput(t)

	sender := &mockSender{}
	sender.On("Send", "Crawl completed", "12 pages").Return(nil).Once()

	n := NewNotifierWithSender(sender, config.NotificationConfig{Enabled: true, OnComplete: true, OnError: false})
	n.SendSuccess("Crawl completed", "12 pages")
	n.SendError("Crawl failed", "timeout")

	sender.AssertExpectations(t)
	sender.AssertNotCalled(t, "Send", "Crawl failed", "timeout")
}

func TestNotifierDisabled(t *testing.T) {
	buf := captureOutput(t)

	sender := &mockSender{}
	n := NewNotifierWithSender(sender, config.NotificationConfig{Enabled: false, OnComplete: true, OnError: true})
	n.SendSuccess("Done", "ok")
	n.SendError("Oops", "bad")

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.Contains(t, buf.String(), "Oops")
}

func TestNotifierIgnoresSenderErrors(t *testing.T) {
	captureOutput(t)

	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("no display"))

	n := NewNotifierWithSender(sender, config.NotificationConfig{Enabled: true, OnComplete: true})
	assert.NotPanics(t, func() { n.SendSuccess("Done", "ok") })
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, "[██████████░░░░░░░░░░] 5/10", RenderProgressBar(5, 10))
	assert.Equal(t, "[████████████████████] 12/10", RenderProgressBar(12, 10))
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 3/?", RenderProgressBar(3, 0))
}

func TestStatusTracker(t *testing.T) {
	buf := captureOutput(t)

	st := NewStatusTracker(4)
	st.IncrementSaved()
	st.IncrementSaved()
	st.IncrementSkipped()
	st.IncrementFailed()

	assert.Equal(t, 4, st.Processed())
	assert.GreaterOrEqual(t, st.GetRate(), 0.0)

	st.PrintProgress()
	assert.Contains(t, buf.String(), "4/4")

	st.PrintSummary()
	assert.Contains(t, buf.String(), "saved 2, skipped 1, failed 1")
}
