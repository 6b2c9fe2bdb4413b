package canonjson

import (
	"bytes"
	"strings"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"sorted keys", `{"b":1,"a":2}`, `{"a":2,"b":1}`},
		{"nested objects", `{"z":{"y":1,"x":2},"a":[{"c":3,"b":4}]}`, `{"a":[{"b":4,"c":3}],"z":{"x":2,"y":1}}`},
		{"whitespace stripped", "{\n  \"a\" : 1 ,\n  \"b\" : \"x\"\n}", `{"a":1,"b":"x"}`},
		{"number trailing zeros", `{"amount":100.50}`, `{"amount":100.5}`},
		{"integer stays integer", `{"n":42}`, `{"n":42}`},
		{"zero", `{"n":0.0}`, `{"n":0}`},
		{"escapes", `{"s":"a\"b\\c\nd"}`, `{"s":"a\"b\\c\nd"}`},
		{"control char", "{\"s\":\"a\\u0001b\"}", `{"s":"a\u0001b"}`},
		{"null and bool", `{"a":null,"b":true,"c":false}`, `{"a":null,"b":true,"c":false}`},
		{"unicode passthrough", `{"s":"收據"}`, `{"s":"收據"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize([]byte(tc.input))
			if err != nil {
				t.Fatalf("canonicalize: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("canonical form = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCanonicalize_Deterministic(t *testing.T) {
	input := []byte(`{"invoiceNo":"INV-001","amount":100.50,"itemName":"laptop"}`)
	first, err := Canonicalize(input)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Canonicalize(input)
		if err != nil {
			t.Fatalf("canonicalize: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("canonical bytes differ across calls")
		}
	}
}

func TestCanonicalize_RejectsBadInput(t *testing.T) {
	cases := []string{
		`{"a":1`,
		`{"a":1}{"b":2}`,
		`not json`,
		``,
	}
	for _, input := range cases {
		if _, err := Canonicalize([]byte(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestMarshal_StructKeyOrder(t *testing.T) {
	type doc struct {
		Zebra string `json:"zebra"`
		Alpha string `json:"alpha"`
	}
	got, err := Marshal(doc{Zebra: "z", Alpha: "a"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(got), `{"alpha":`) {
		t.Fatalf("keys not sorted: %s", got)
	}
}
