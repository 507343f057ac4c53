package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/storage"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) WritePage(ctx context.Context, jobID, key string, page firecrawl.Document) error {
	return m.Called(ctx, jobID, key, page).Error(0)
}

func (m *mockSink) Close() error {
	return m.Called().Error(0)
}

func page(url string) firecrawl.Document {
	return firecrawl.Document{
		Markdown: "# " + url,
		Metadata: &firecrawl.PageMetadata{SourceURL: url, StatusCode: 200},
	}
}

func TestKafkaSinkWritePage(t *testing.T) {
	writer := &mockWriter{}
	sink := NewKafkaSinkWithWriter(writer)

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "https://example.com/a" {
			return false
		}
		var msg PageMessage
		if err := json.Unmarshal(msgs[0].Value, &msg); err != nil {
			return false
		}
		return msg.JobID == "job-1" && msg.URL == "https://example.com/a" && msg.Page.Markdown == "# https://example.com/a"
	})).Return(nil).Once()
	writer.On("Close").Return(nil).Once()

	require.NoError(t, sink.WritePage(context.Background(), "job-1", "https://example.com/a", page("https://example.com/a")))
	require.NoError(t, sink.Close())
	writer.AssertExpectations(t)
}

func TestKafkaSinkWriteError(t *testing.T) {
	writer := &mockWriter{}
	sink := NewKafkaSinkWithWriter(writer)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	assert.EqualError(t, sink.WritePage(context.Background(), "job-1", "https://example.com", page("https://example.com")), "write failed")
}

func TestMultiSinkContinuesAfterError(t *testing.T) {
	first, second := &mockSink{}, &mockSink{}
	p := page("https://example.com")

	first.On("WritePage", mock.Anything, "job", "https://example.com", p).Return(errors.New("broker down"))
	second.On("WritePage", mock.Anything, "job", "https://example.com", p).Return(nil)
	first.On("Close").Return(nil)
	second.On("Close").Return(errors.New("close failed"))

	multi := MultiSink{first, second}
	assert.EqualError(t, multi.WritePage(context.Background(), "job", "https://example.com", p), "broker down")
	assert.EqualError(t, multi.Close(), "close failed")

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestFileSink(t *testing.T) {
	store, err := storage.NewManager(t.TempDir(), false)
	require.NoError(t, err)
	sink := NewFileSink(store)

	require.NoError(t, sink.WritePage(context.Background(), "job", "https://example.com/a", page("https://example.com/a")))
	require.NoError(t, sink.WritePage(context.Background(), "job", "https://example.com/a", page("https://example.com/a")))
	require.NoError(t, sink.WritePage(context.Background(), "job", "https://example.com/b", page("https://example.com/b")))

	assert.Equal(t, 2, store.SavedCount())
	assert.True(t, store.IsSaved("https://example.com/b"))
	assert.NoError(t, sink.Close())
}

func TestPageKey(t *testing.T) {
	assert.Equal(t, "https://example.com/a", PageKey("job", 3, page("https://example.com/a")))
	assert.Equal(t, "job/page-3", PageKey("job", 3, firecrawl.Document{Markdown: "x"}))
	assert.Equal(t, "job/page-0", PageKey("job", 0, firecrawl.Document{Metadata: &firecrawl.PageMetadata{Title: "no source"}}))
}

func TestKafkaSinkKeysPagesWithoutSourceURL(t *testing.T) {
	writer := &mockWriter{}
	sink := NewKafkaSinkWithWriter(writer)

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && string(msgs[0].Key) == "job-1/page-2"
	})).Return(nil).Once()

	require.NoError(t, sink.WritePage(context.Background(), "job-1", "job-1/page-2", firecrawl.Document{Markdown: "x"}))
	writer.AssertExpectations(t)
}

func TestFileSinkKeepsPagesWithoutSourceURLApart(t *testing.T) {
	store, err := storage.NewManager(t.TempDir(), false)
	require.NoError(t, err)
	sink := NewFileSink(store)

	for i := 0; i < 3; i++ {
		doc := firecrawl.Document{Markdown: "page"}
		require.NoError(t, sink.WritePage(context.Background(), "job", PageKey("job", i, doc), doc))
	}

	assert.Equal(t, 3, store.SavedCount())
	assert.True(t, store.IsSaved("job/page-1"))
}
