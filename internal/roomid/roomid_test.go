package roomid

import (
	"bytes"
	"sort"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	id := New()

	if len(id) != Length {
		t.Errorf("expected %d characters, got %d", Length, len(id))
	}
	if err := Validate(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	now := time.Now()
	var ids []string
	for i := 0; i < 10; i++ {
		ts := now.Add(time.Duration(i) * time.Second)
		g := NewGenerator(
			WithNow(func() time.Time { return ts }),
			WithSource(bytes.NewReader(bytes.Repeat([]byte{0xaa}, 10))),
		)
		id, err := g.Generate()
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	if !sort.StringsAreSorted(ids) {
		t.Errorf("IDs not in creation order: %v", ids)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	gen := func() string {
		g := NewGenerator(
			WithNow(func() time.Time { return ts }),
			WithSource(bytes.NewReader(bytes.Repeat([]byte{0x42}, 10))),
		)
		id, err := g.Generate()
		if err != nil {
			t.Fatal(err)
		}
		return id
	}

	if a, b := gen(), gen(); a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
}

func TestLeadingCharacterEncodesTimestamp(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	g := NewGenerator(
		WithNow(func() time.Time { return ts }),
		WithSource(bytes.NewReader(bytes.Repeat([]byte{0xff}, 10))),
	)
	id, err := g.Generate()
	if err != nil {
		t.Fatal(err)
	}

	// The first character is the top 5 bits of the timestamp, independent
	// of the random tail.
	want := alphabet[byte(ts.UnixMilli()>>40)>>3]
	if id[0] != want {
		t.Errorf("first character %c, want %c", id[0], want)
	}
	if id[0] > '7' {
		t.Errorf("first character %c exceeds the validation bound", id[0])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", New(), false},
		{"too short", "abc", true},
		{"bad first char", "z" + New()[1:], true},
		{"bad character", New()[:25] + "!", true},
		{"uppercase rejected", "0ABCDEFGHJKMNPQRSTVWXYZ012", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
