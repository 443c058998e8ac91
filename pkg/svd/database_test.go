package svd

import (
	"strings"
	"testing"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()
	return NewDatabase(parseSample(t))
}

func TestPeripheralLookupCaseInsensitive(t *testing.T) {
	db := testDatabase(t)
	for _, name := range []string{"GPIOA", "gpioa", "GpioA"} {
		p, err := db.Peripheral(name)
		if err != nil {
			t.Fatalf("Peripheral(%q): %v", name, err)
		}
		if p.Name != "GPIOA" {
			t.Errorf("Peripheral(%q) = %s", name, p.Name)
		}
	}
}

func TestPeripheralLookupSuggestions(t *testing.T) {
	db := testDatabase(t)
	_, err := db.Peripheral("GPIX")
	if err == nil {
		t.Fatal("expected lookup failure")
	}
	ue, ok := err.(*UnknownNameError)
	if !ok {
		t.Fatalf("error type %T, want *UnknownNameError", err)
	}
	if len(ue.Suggestion) == 0 || len(ue.Suggestion) > maxSuggestions {
		t.Fatalf("got %d suggestions", len(ue.Suggestion))
	}
	if !strings.Contains(err.Error(), "GPIOA") {
		t.Errorf("suggestions missing GPIOA: %v", err)
	}
}

func TestRegisterLookup(t *testing.T) {
	db := testDatabase(t)
	p, _ := db.Peripheral("GPIOA")
	r, err := db.Register(p, "moder")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if r.Name != "MODER" {
		t.Errorf("register = %s", r.Name)
	}
	if _, err := db.Register(p, "NOPE"); err == nil {
		t.Fatal("expected failure for unknown register")
	}
}

func TestRegisterAddress(t *testing.T) {
	db := testDatabase(t)
	addr, err := db.RegisterAddress("GPIOA", "IDR")
	if err != nil {
		t.Fatalf("RegisterAddress: %v", err)
	}
	if addr != 0x58020010 {
		t.Errorf("address = %#x, want 0x58020010", addr)
	}
}

func TestDecodeRegister(t *testing.T) {
	db := testDatabase(t)
	// MODE0=[1:0] MODE1=[3:2] MODE2=[5:4]
	dec, err := db.DecodeRegister("gpioa", "moder", 0b11_01_10)
	if err != nil {
		t.Fatalf("DecodeRegister: %v", err)
	}
	if dec.Peripheral != "GPIOA" || dec.Register != "MODER" {
		t.Errorf("decoded names = %s.%s", dec.Peripheral, dec.Register)
	}
	want := []struct {
		name  string
		value uint64
		bits  string
	}{
		{"MODE0", 0b10, "[1:0]"},
		{"MODE1", 0b01, "[3:2]"},
		{"MODE2", 0b11, "[5:4]"},
	}
	if len(dec.Fields) != len(want) {
		t.Fatalf("got %d fields", len(dec.Fields))
	}
	for i, w := range want {
		f := dec.Fields[i]
		if f.Name != w.name || f.Value != w.value || f.Bits != w.bits {
			t.Errorf("field %d = %s=%d %s, want %s=%d %s",
				i, f.Name, f.Value, f.Bits, w.name, w.value, w.bits)
		}
	}
}

func TestDecodeRegisterBoundaryValues(t *testing.T) {
	db := testDatabase(t)
	dec, _ := db.DecodeRegister("GPIOA", "MODER", 0)
	for _, f := range dec.Fields {
		if f.Value != 0 {
			t.Errorf("field %s of zero value = %d", f.Name, f.Value)
		}
	}
	dec, _ = db.DecodeRegister("GPIOA", "MODER", 0xFFFFFFFF)
	for _, f := range dec.Fields {
		if f.Value != 0b11 {
			t.Errorf("field %s of all-ones = %#b, want 0b11", f.Name, f.Value)
		}
	}
}

func TestLookupAddress(t *testing.T) {
	db := testDatabase(t)
	p, r, ok := db.LookupAddress(0x58020010)
	if !ok || p != "GPIOA" || r != "IDR" {
		t.Errorf("LookupAddress(0x58020010) = %s.%s ok=%v", p, r, ok)
	}
	// derived peripheral registers are indexed at their own base
	p, r, ok = db.LookupAddress(0x58020400)
	if !ok || p != "GPIOB" || r != "MODER" {
		t.Errorf("LookupAddress(0x58020400) = %s.%s ok=%v", p, r, ok)
	}
	// exact match only: an address inside a register span misses
	if _, _, ok := db.LookupAddress(0x58020012); ok {
		t.Error("LookupAddress matched a non-register address")
	}
	if _, _, ok := db.LookupAddress(0x20000000); ok {
		t.Error("LookupAddress matched unmapped memory")
	}
}

func TestPeripheralsFilter(t *testing.T) {
	db := testDatabase(t)
	all, err := db.Peripherals("")
	if err != nil || len(all) != 2 {
		t.Fatalf("Peripherals(\"\") = %d, err %v", len(all), err)
	}
	some, err := db.Peripherals("gpiob")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(some) != 1 || some[0].Name != "GPIOB" {
		t.Errorf("filtered = %v", some)
	}
	if _, err := db.Peripherals("["); err == nil {
		t.Error("expected error for bad filter regexp")
	}
}
