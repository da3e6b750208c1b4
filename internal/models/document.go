package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Document is a schema-flexible record as held by the document store. Its
// identifier travels under the "_id" key.
type Document map[string]any

const FieldID = "_id"

// Decode maps a stored document onto a typed model. Timestamps arrive as
// RFC3339 strings after a JSON round trip; keys without a matching field land
// in the model's ",remain" map. A value that cannot be converted to its
// field's type is kept verbatim in the remain map and the field stays zero.
func Decode(doc Document, out any) error {
	err := decode(doc, out)
	if err == nil {
		return nil
	}

	target := reflect.ValueOf(out).Elem()
	clean := make(Document, len(doc))
	raw := map[string]any{}
	for k, v := range doc {
		scratch := reflect.New(target.Type())
		if decode(Document{k: v}, scratch.Interface()) != nil {
			raw[k] = v
			continue
		}
		clean[k] = v
	}

	remain, ok := remainField(target)
	if !ok || len(raw) == 0 {
		return err
	}
	target.Set(reflect.Zero(target.Type()))
	if err := decode(clean, out); err != nil {
		return err
	}
	if remain.IsNil() {
		remain.Set(reflect.MakeMap(remain.Type()))
	}
	for k, v := range raw {
		remain.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(v))
	}
	return nil
}

func decode(doc Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// remainField finds the map[string]any tagged ",remain" on a struct value.
func remainField(v reflect.Value) (reflect.Value, bool) {
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	mapType := reflect.TypeOf(map[string]any(nil))
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if f.Type == mapType && strings.Contains(f.Tag.Get("mapstructure"), ",remain") {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// merge lays extra under known. An extra value shows through only where known
// holds nothing or its zero value, which is where Decode parks stored values it
// could not convert.
func merge(extra map[string]any, known Document) Document {
	doc := make(Document, len(extra)+len(known))
	for k, v := range known {
		doc[k] = v
	}
	for k, v := range extra {
		if current, ok := doc[k]; ok && !isZero(current) {
			continue
		}
		doc[k] = v
	}
	return doc
}

func isZero(v any) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}
