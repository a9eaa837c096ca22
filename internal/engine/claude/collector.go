package claude

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Collector consumes Claude's stream-json output line by line and accumulates
// the assistant's text blocks into the final plain-text response.
//
// Stream events look like:
//
//	{"type":"assistant","message":{"content":[{"type":"text","text":"..."}]}}
//	{"type":"result","result":"...final text..."}
//
// The result event, when present, supersedes the accumulated text since it is
// the CLI's own notion of the final answer.
type Collector struct {
	buffer []byte
	text   strings.Builder
	result string
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Write implements io.Writer over the raw stream, splitting it into lines.
func (c *Collector) Write(p []byte) (int, error) {
	c.buffer = append(c.buffer, p...)
	for {
		idx := bytes.IndexByte(c.buffer, '\n')
		if idx == -1 {
			break
		}
		line := c.buffer[:idx]
		c.buffer = c.buffer[idx+1:]
		c.consumeLine(line)
	}
	return len(p), nil
}

// Flush processes any trailing partial line.
func (c *Collector) Flush() {
	if len(c.buffer) > 0 {
		c.consumeLine(c.buffer)
		c.buffer = nil
	}
}

// Text returns the extracted response text.
func (c *Collector) Text() string {
	if c.result != "" {
		return c.result
	}
	return c.text.String()
}

func (c *Collector) consumeLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return
	}

	switch raw["type"] {
	case "assistant":
		msg, ok := raw["message"].(map[string]any)
		if !ok {
			return
		}
		content, ok := msg["content"].([]any)
		if !ok {
			return
		}
		for _, item := range content {
			block, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if block["type"] == "text" {
				if text, ok := block["text"].(string); ok {
					c.text.WriteString(text)
				}
			}
		}
	case "result":
		if res, ok := raw["result"].(string); ok {
			c.result = res
		}
	}
}
