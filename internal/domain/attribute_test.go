package domain

import (
	"reflect"
	"testing"
)

func TestAttributeSetOrder(t *testing.T) {
	a := NewAttributeSet()
	a.SetInt("size", 100)
	a.SetString("machine_name", "I386")
	a.SetFloat("entropy", 6.5)
	a.SetInt("size", 200) // overwrite keeps the original position

	want := []string{"size", "machine_name", "entropy"}
	if got := a.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
	if v, _ := a.Int("size"); v != 200 {
		t.Errorf("size = %d, want 200 after overwrite", v)
	}
}

func TestAttributeSetAccessors(t *testing.T) {
	a := NewAttributeSet()
	a.SetInt("count", 7)
	a.SetFloat("ratio", 0.25)
	a.SetString("name", "kernel32.dll")

	if v, ok := a.Float("count"); !ok || v != 7 {
		t.Errorf("Float(count) = %v, %v; integers must convert", v, ok)
	}
	if v, ok := a.Float("ratio"); !ok || v != 0.25 {
		t.Errorf("Float(ratio) = %v, %v", v, ok)
	}
	if _, ok := a.Float("name"); ok {
		t.Error("Float(name) converted a string")
	}
	if _, ok := a.Float("absent"); ok {
		t.Error("Float(absent) reported present")
	}
	if _, ok := a.Int("ratio"); ok {
		t.Error("Int(ratio) converted a float")
	}
	if !a.Has("name") || a.Has("absent") {
		t.Error("Has() misreports presence")
	}
}

func TestAttributeSetText(t *testing.T) {
	a := NewAttributeSet()
	a.SetInt("count", -42)
	a.SetFloat("entropy", 6.5)
	a.SetFloat("whole", 3)
	a.SetString("name", "packed")

	tests := map[string]string{
		"count":   "-42",
		"entropy": "6.5",
		"whole":   "3",
		"name":    "packed",
		"absent":  "",
	}
	for key, want := range tests {
		if got := a.Text(key); got != want {
			t.Errorf("Text(%q) = %q, want %q", key, got, want)
		}
	}
}
