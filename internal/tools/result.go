package tools

import "fmt"

// Content block kinds.
const (
	ContentText  = "text"
	ContentImage = "image"
)

// ContentBlock is one element of a tool result, tagged by kind.
type ContentBlock struct {
	Type string `json:"type"`
	// Text is set for text blocks.
	Text string `json:"text,omitempty"`
	// Data holds base64-encoded bytes for image blocks.
	Data string `json:"data,omitempty"`
	// MIMEType describes image data.
	MIMEType string `json:"mimeType,omitempty"`
}

// Result is the uniform outcome of a tool invocation: an ordered
// sequence of content blocks plus an error flag. A failed tool run is
// still a Result, never a transport-level error.
type Result struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult wraps text in a successful Result.
func TextResult(text string) Result {
	return Result{Content: []ContentBlock{{Type: ContentText, Text: text}}}
}

// ImageResult wraps base64 image data in a successful Result.
func ImageResult(data, mimeType string) Result {
	return Result{Content: []ContentBlock{{Type: ContentImage, Data: data, MIMEType: mimeType}}}
}

// ErrorResult builds a Result with IsError set and a single text block.
func ErrorResult(format string, args ...any) Result {
	return Result{
		Content: []ContentBlock{{Type: ContentText, Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
