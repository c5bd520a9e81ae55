package models

import (
	"encoding/json"
	"testing"
)

func TestValueKeepsSourceText(t *testing.T) {
	var doc struct {
		A Value `json:"a"`
		B Value `json:"b"`
		C Value `json:"c"`
		D Value `json:"d"`
		E Value `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"a":110000,"b":100000.0,"c":"12.5","d":true,"e":null}`), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"int", doc.A, "110000"},
		{"float", doc.B, "100000.0"},
		{"text", doc.C, "12.5"},
		{"bool", doc.D, "True"},
		{"null", doc.E, ""},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("%s: String() = %q, want %q", tc.name, got, tc.want)
		}
	}
	if !doc.E.IsNull() {
		t.Fatal("null should decode to the zero value")
	}
	if f, ok := doc.C.Float64(); !ok || f != 12.5 {
		t.Fatalf("numeric string should convert, got %v %v", f, ok)
	}
}

func TestValueFloatFormatting(t *testing.T) {
	cases := map[float64]string{
		22000:     "22000",
		1500000:   "1500000",
		36.666666: "36.666666",
		0:         "0",
		1e-7:      "1e-07",
	}
	for in, want := range cases {
		if got := Float(in).String(); got != want {
			t.Errorf("Float(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestValueInt64(t *testing.T) {
	if i, ok := Number("42").Int64(); !ok || i != 42 {
		t.Fatalf("expected 42, got %d %v", i, ok)
	}
	if _, ok := Number("4.5").Int64(); ok {
		t.Fatal("fractional value should not convert")
	}
	if _, ok := Text("abc").Int64(); ok {
		t.Fatal("text should not convert")
	}
}

func TestValueMarshalJSON(t *testing.T) {
	b, err := json.Marshal([]Value{Null(), Int(3), Text("x"), Bool(false)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[null,3,"x",false]` {
		t.Fatalf("unexpected %s", b)
	}
}
