package analysis

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Documenter is implemented by structured payloads that know how to render
// themselves as analysis input. The jira and github toolkits satisfy it for
// their shared-data types; satisfying it is optional, everything else is
// rendered as JSON.
type Documenter interface {
	Document() string
}

// Documents flattens a tool argument into per-item text documents. Slices
// become one document per element; scalars and structured payloads become a
// single document.
func Documents(v any) []string {
	if v == nil {
		return nil
	}
	if doc, ok := singleDocument(v); ok {
		return []string{doc}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		docs := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			docs = append(docs, render(rv.Index(i).Interface()))
		}
		return docs
	}
	return []string{render(v)}
}

func singleDocument(v any) (string, bool) {
	switch d := v.(type) {
	case Documenter:
		return d.Document(), true
	case string:
		return d, true
	default:
		return "", false
	}
}

func render(v any) string {
	if doc, ok := singleDocument(v); ok {
		return doc
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
