package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Required("slug", "ok", v)
	if v["name"] != "required" {
		t.Fatalf("expected required on name, got %v", v)
	}
	if _, ok := v["slug"]; ok {
		t.Fatalf("slug should be valid")
	}
}

func TestPositiveFloatAndRange(t *testing.T) {
	v := Violations{}
	PositiveFloat("price", 0, v)
	RangeFloat("year", 1850, 1900, 2100, v)
	RangeFloat("ok", 2000, 1900, 2100, v)
	if v["price"] != "must_be_positive" || v["year"] != "out_of_range" {
		t.Fatalf("unexpected violations %v", v)
	}
	if _, ok := v["ok"]; ok {
		t.Fatalf("in-range value flagged")
	}
}

func TestEmail(t *testing.T) {
	v := Violations{}
	Email("email", "not-an-email", v)
	if v["email"] != "email" {
		t.Fatalf("expected email violation, got %v", v)
	}
	v = Violations{}
	Email("email", "ana@example.com", v)
	Email("other", "", v)
	if !v.Empty() {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestMinLength(t *testing.T) {
	v := Violations{}
	MinLength("password", "short", 8, v)
	if v["password"] != "too_short" {
		t.Fatalf("expected too_short, got %v", v)
	}
}

func TestMaxLength(t *testing.T) {
	v := Violations{}
	MaxLength("full_name", "Émile", 5, v)
	if !v.Empty() {
		t.Fatalf("length counts characters, got %v", v)
	}
	MaxLength("full_name", "Émile Zola", 5, v)
	if v["full_name"] != "max" {
		t.Fatalf("expected max, got %v", v)
	}
}

type sample struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"hex_code,omitempty" validate:"omitempty,hexcolor"`
	Skip  string `json:"-" validate:"required"`
}

func TestStruct_UsesJSONNames(t *testing.T) {
	v := Struct(&sample{Color: "blue", Skip: "x"})
	if v["name"] != "required" {
		t.Errorf("expected name=required, got %v", v)
	}
	if v["hex_code"] != "hexcolor" {
		t.Errorf("expected hex_code=hexcolor, got %v", v)
	}
}

func TestStruct_Valid(t *testing.T) {
	if v := Struct(&sample{Name: "Red", Color: "#ff0000", Skip: "x"}); !v.Empty() {
		t.Errorf("expected valid, got %v", v)
	}
}

func TestStruct_NotAStruct(t *testing.T) {
	v := Struct(42)
	if v["_"] != "invalid" {
		t.Errorf("expected invalid marker, got %v", v)
	}
}
