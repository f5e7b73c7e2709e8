package checkpoint

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samcharles93/expkit/internal/logger"
)

func TestLogEventsLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := LogEvents(logger.JSON(&buf, slog.LevelInfo))

	sink.Event(Event{Op: OpSave, Name: "trunk", Path: "/m/trunk_1.pth"})
	sink.Event(Event{Op: OpDelete, Name: "trunk", Path: "/m/trunk_1.pth"})
	assert.Empty(t, buf.String())

	sink.Event(Event{Op: OpLoad, Name: "trunk", Path: "/m/trunk_2.pth", Fallback: true})
	out := buf.String()
	assert.Contains(t, out, `"msg":"loading checkpoint"`)
	assert.Contains(t, out, `"name":"trunk"`)
	assert.Contains(t, out, `"fallback":true`)
}

func TestEventFunc(t *testing.T) {
	var got []Event
	var sink EventSink = EventFunc(func(e Event) { got = append(got, e) })
	sink.Event(Event{Op: OpDelete, Name: "embedder"})
	assert.Equal(t, []Event{{Op: OpDelete, Name: "embedder"}}, got)
}
