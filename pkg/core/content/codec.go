// Package content converts between a template's stored editable-content blob
// and the structured editor state.
package content

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/core/domain"
)

const (
	handleIDPrefix = "handle"
	linkIDPrefix   = "link"
)

// Codec decodes and encodes editable content. Decode never fails: anything
// it cannot parse is replaced by the template's own name and description.
type Codec struct {
	logger *zap.Logger
}

// NewCodec returns a Codec that reports recovered decode failures to logger.
func NewCodec(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{logger: logger}
}

// Fallback is the content used when a template carries nothing usable.
func Fallback(name, description string) domain.EditableContent {
	return domain.EditableContent{
		Title:         name,
		BioText:       description,
		SocialHandles: []domain.SocialHandle{},
		Links:         []domain.Link{},
	}
}

// Decode parses raw into editor state. Each field falls back on its own:
// title to fallbackName, bioText to fallbackDescription, lists to empty.
// Entries without an id get one derived from their index.
func (c *Codec) Decode(raw []byte, fallbackName, fallbackDescription string) domain.EditableContent {
	out := Fallback(fallbackName, fallbackDescription)
	if len(raw) == 0 {
		return out
	}
	if !utf8.Valid(raw) {
		c.logger.Warn("editable content is not valid utf-8, using fallback", zap.Int("bytes", len(raw)))
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		c.logger.Warn("editable content is not a json object, using fallback", zap.Error(err))
		return out
	}

	if v, ok := decodeString(fields["title"]); ok {
		out.Title = v
	}
	if v, ok := decodeString(fields["bioText"]); ok {
		out.BioText = v
	}
	if raw, ok := fields["socialHandles"]; ok && isArray(raw) {
		var handles []domain.SocialHandle
		if err := json.Unmarshal(raw, &handles); err != nil {
			c.logger.Warn("editable content socialHandles malformed, using empty list", zap.Error(err))
		} else {
			out.SocialHandles = handles
		}
	}
	if raw, ok := fields["links"]; ok && isArray(raw) {
		var links []domain.Link
		if err := json.Unmarshal(raw, &links); err != nil {
			c.logger.Warn("editable content links malformed, using empty list", zap.Error(err))
		} else {
			out.Links = links
		}
	}

	return NormalizeIDs(out)
}

// Encode serializes content as UTF-8 JSON. Nil lists are written as [].
func (c *Codec) Encode(content domain.EditableContent) ([]byte, error) {
	if content.SocialHandles == nil {
		content.SocialHandles = []domain.SocialHandle{}
	}
	if content.Links == nil {
		content.Links = []domain.Link{}
	}
	b, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode editable content: %w", err)
	}
	return b, nil
}

// NormalizeIDs fills in missing social handle and link ids from their list
// index. The input slices are not modified.
func NormalizeIDs(content domain.EditableContent) domain.EditableContent {
	handles := make([]domain.SocialHandle, len(content.SocialHandles))
	for i, h := range content.SocialHandles {
		if h.ID == "" {
			h.ID = indexID(handleIDPrefix, i)
		}
		handles[i] = h
	}
	links := make([]domain.Link, len(content.Links))
	for i, l := range content.Links {
		if l.ID == "" {
			l.ID = indexID(linkIDPrefix, i)
		}
		links[i] = l
	}
	content.SocialHandles = handles
	content.Links = links
	return content
}

func indexID(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
