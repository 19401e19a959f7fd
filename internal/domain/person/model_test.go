package person

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12345678", "12345678"},
		{"123-456-78", "12345678"},
		{"(12) 34 56 78 90", "12345678"},
		{"+34 612 345 678 ext 9", "34612345"},
		{"abc", ""},
		{"", ""},
		{"12", "12"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhone_BoundedDigits(t *testing.T) {
	got := NormalizePhone("99999999999999999999")
	if len(got) > PhoneMaxDigits {
		t.Fatalf("normalized phone %q exceeds %d digits", got, PhoneMaxDigits)
	}
	for _, r := range got {
		if r < '0' || r > '9' {
			t.Fatalf("normalized phone %q contains non-digit %q", got, r)
		}
	}
}

func TestNormalizeSex(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"male", SexMasculine},
		{"female", SexFeminine},
		{"MALE", SexMasculine},
		{" Female ", SexFeminine},
		{"masculine", SexMasculine},
		{"feminine", SexFeminine},
		{"other", SexMasculine},
		{"", SexMasculine},
	}
	for _, tc := range cases {
		if got := NormalizeSex(tc.in); got != tc.want {
			t.Errorf("NormalizeSex(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	if got := NormalizeRole("Staff"); got != RoleStaff {
		t.Errorf("NormalizeRole(Staff) = %q", got)
	}
	if got := NormalizeRole("anything"); got != RoleClient {
		t.Errorf("NormalizeRole(anything) = %q", got)
	}
}

func TestFullName(t *testing.T) {
	p := Person{Name: "Ana", Surname: "García"}
	if got := p.FullName(); got != "Ana García" {
		t.Errorf("FullName() = %q", got)
	}
	p = Person{Name: "Client-1042"}
	if got := p.FullName(); got != "Client-1042" {
		t.Errorf("FullName() = %q", got)
	}
}
