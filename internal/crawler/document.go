package crawler

import (
	"github.com/tidwall/gjson"
)

// ParseDocument validates body as a non-empty JSON object or array.
func ParseDocument(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &ParseError{Reason: "response is not valid json"}
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() && !doc.IsArray() {
		return gjson.Result{}, &ParseError{Reason: "unable to get response data"}
	}
	empty := true
	doc.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	if empty {
		return gjson.Result{}, &ParseError{Reason: "unable to get response data"}
	}
	return doc, nil
}
