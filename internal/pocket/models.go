package pocket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FlexInt is an integer that Pocket may send either as a JSON number or as a
// numeric string.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	n, err := parseFlexNumber(data)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Int64 returns the value as an int64.
func (f FlexInt) Int64() int64 {
	return int64(f)
}

// Flag is a boolean-like value. Pocket reports "0", "1" and sometimes "2"
// (the item itself is an image or a video), so the raw value is kept.
type Flag int

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}
	n, err := parseFlexNumber(data)
	if err != nil {
		return err
	}
	*f = Flag(n)
	return nil
}

// Set reports whether the flag holds a non-zero value.
func (f Flag) Set() bool {
	return f != 0
}

func parseFlexNumber(data []byte) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric string %q: %w", s, err)
		}
		return n, nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("expected number, got %s", data)
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	// Accept integral floats such as 12.0, nothing that would lose precision.
	fl, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid number %s: %w", n, err)
	}
	if fl != math.Trunc(fl) || fl < math.MinInt64 || fl >= math.MaxInt64 {
		return 0, fmt.Errorf("number %s is not an int64", n)
	}
	return int64(fl), nil
}

// Item is a bookmark as Pocket knows it after processing the submitted URL.
// A nil field means the service did not report it.
type Item struct {
	ID             *FlexInt        `json:"id,omitempty"`
	NormalURL      *string         `json:"normal_url,omitempty"`
	ResolvedID     *FlexInt        `json:"resolved_id,omitempty"`
	ResolvedURL    *string         `json:"resolved_url,omitempty"`
	DomainID       *FlexInt        `json:"domain_id,omitempty"`
	OriginDomainID *FlexInt        `json:"origin_domain_id,omitempty"`
	ResponseCode   *FlexInt        `json:"response_code,omitempty"`
	MimeType       *string         `json:"mime_type,omitempty"`
	ContentLength  *FlexInt        `json:"content_length,omitempty"`
	Encoding       *string         `json:"encoding,omitempty"`
	DateResolved   *string         `json:"date_resolved,omitempty"`
	DatePublished  *string         `json:"date_published,omitempty"`
	Title          *string         `json:"title,omitempty"`
	Excerpt        *string         `json:"excerpt,omitempty"`
	WordCount      *FlexInt        `json:"word_count,omitempty"`
	HasImage       *Flag           `json:"has_image,omitempty"`
	HasVideo       *Flag           `json:"has_video,omitempty"`
	IsIndex        *Flag           `json:"is_index,omitempty"`
	IsArticle      *Flag           `json:"is_article,omitempty"`
	Authors        json.RawMessage `json:"authors,omitempty"`
	Images         json.RawMessage `json:"images,omitempty"`
	Videos         json.RawMessage `json:"videos,omitempty"`
}

// addResponse is the envelope returned by /v3/add.
type addResponse struct {
	Item   json.RawMessage `json:"item"`
	Status *int            `json:"status"`
}

// itemPayload adds the keys that only matter while decoding.
type itemPayload struct {
	Item
	ItemID *FlexInt `json:"item_id"`
}

// NewItemFromResponse builds an Item from a decoded /v3/add response body.
func NewItemFromResponse(body []byte) (*Item, error) {
	var envelope addResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Body: body, Err: err}
	}

	raw := bytes.TrimSpace(envelope.Item)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &DecodeError{Body: body, Err: fmt.Errorf("response has no item")}
	}
	if raw[0] != '{' {
		return nil, &DecodeError{Body: body, Err: fmt.Errorf("item is not an object")}
	}

	raw, err := blankNumericFields(raw)
	if err != nil {
		return nil, &DecodeError{Body: body, Err: fmt.Errorf("failed to decode item: %w", err)}
	}

	var payload itemPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &DecodeError{Body: body, Err: fmt.Errorf("failed to decode item: %w", err)}
	}

	item := payload.Item
	if item.ID == nil {
		item.ID = payload.ItemID
	}
	item.Authors = detachRaw(item.Authors)
	item.Images = detachRaw(item.Images)
	item.Videos = detachRaw(item.Videos)

	return &item, nil
}

// numericKeys are the item keys decoded into FlexInt or Flag.
var numericKeys = []string{
	"id", "item_id", "resolved_id", "domain_id", "origin_domain_id",
	"response_code", "content_length", "word_count",
	"has_image", "has_video", "is_index", "is_article",
}

// blankNumericFields rewrites "" to null on numeric keys, so an empty value
// decodes as absent rather than as zero.
func blankNumericFields(raw []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	changed := false
	for _, key := range numericKeys {
		if v, ok := fields[key]; ok && bytes.Equal(bytes.TrimSpace(v), []byte(`""`)) {
			fields[key] = json.RawMessage("null")
			changed = true
		}
	}
	if !changed {
		return raw, nil
	}
	return json.Marshal(fields)
}

// detachRaw copies raw JSON so the item shares no memory with the response
// body. JSON null is reported as absent.
func detachRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
