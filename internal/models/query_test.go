package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hyperjump/wavekb/internal/quaternion"
)

func TestSearchRequest_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name string
		topK int
		want int
	}{
		{"sets default top_k", 0, 10},
		{"keeps explicit top_k", 3, 3},
		{"caps top_k at max", 500, 100},
		{"leaves negative for the index to reject", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &SearchRequest{TopK: tt.topK}
			q.ApplyDefaults(10, 100)
			if q.TopK != tt.want {
				t.Errorf("TopK = %d, want %d", q.TopK, tt.want)
			}
		})
	}
}

func TestAbsorbRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AbsorbRequest
		wantErr bool
	}{
		{"empty target is left to the lookup", AbsorbRequest{SourceIDs: []string{"a"}}, false},
		{"no sources", AbsorbRequest{TargetID: "t"}, true},
		{"valid", AbsorbRequest{TargetID: "t", SourceIDs: []string{"a"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func validPattern() *WavePattern {
	return &WavePattern{
		ID:          "p",
		Orientation: quaternion.Identity,
		Energy:      1,
		Frequency:   0.5,
		Phase:       0.1,
		AbsorbedIDs: []string{},
		Metadata:    Metadata{"label": "cat"},
	}
}

func TestWavePattern_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *WavePattern)
	}{
		{"empty id", func(p *WavePattern) { p.ID = "" }},
		{"non-unit orientation", func(p *WavePattern) { p.Orientation = quaternion.New(1, 1, 0, 0) }},
		{"negative energy", func(p *WavePattern) { p.Energy = -0.1 }},
		{"frequency above one", func(p *WavePattern) { p.Frequency = 1.5 }},
		{"unwrapped phase", func(p *WavePattern) { p.Phase = 4 }},
		{"negative depth", func(p *WavePattern) { p.ExpansionDepth = -1 }},
		{"self in absorbed ids", func(p *WavePattern) { p.AbsorbedIDs = []string{"x", "p"} }},
		{"nested metadata", func(p *WavePattern) { p.Metadata = Metadata{"k": []any{1}} }},
		{"nan energy", func(p *WavePattern) { p.Energy = math.NaN() }},
	}
	if err := validPattern().Validate(); err != nil {
		t.Fatalf("valid pattern rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPattern()
			tt.mutate(p)
			err := p.Validate()
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Validate() = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestWavePattern_CloneIsDeep(t *testing.T) {
	p := validPattern()
	p.AbsorbedIDs = []string{"a"}
	c := p.Clone()
	c.AbsorbedIDs[0] = "changed"
	c.Metadata["label"] = "dog"
	if p.AbsorbedIDs[0] != "a" || p.Metadata["label"] != "cat" {
		t.Errorf("clone shares state with original: %+v", p)
	}
}

func TestWavePattern_JSONOrientationArray(t *testing.T) {
	p := validPattern()
	p.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	p.UpdatedAt = p.CreatedAt
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	orient, ok := raw["orientation"].([]any)
	if !ok || len(orient) != 4 || orient[0] != 1.0 {
		t.Errorf("orientation = %v", raw["orientation"])
	}

	var back WavePattern
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Orientation != p.Orientation || !back.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("decoded %+v", back)
	}
}

func TestWavePattern_UnmarshalRejectsShortOrientation(t *testing.T) {
	var p WavePattern
	err := json.Unmarshal([]byte(`{"id":"x","orientation":[1,0,0]}`), &p)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewMetadata(t *testing.T) {
	m, err := NewMetadata(map[string]any{"n": 3, "s": "x", "b": true, "z": nil})
	if err != nil {
		t.Fatal(err)
	}
	if m["n"] != 3.0 {
		t.Errorf("int should widen to float64, got %T", m["n"])
	}
	if _, err := NewMetadata(map[string]any{"nested": map[string]any{}}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for nested value, got %v", err)
	}
	var decoded Metadata
	if err := json.Unmarshal([]byte(`{"a":[1,2]}`), &decoded); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument decoding array value, got %v", err)
	}
}

func TestErrorKind(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrNotFound)
	if got := ErrorKind(wrapped); got != "not_found" {
		t.Errorf("ErrorKind = %q", got)
	}
	if got := ErrorKind(errors.New("boom")); got != "internal" {
		t.Errorf("ErrorKind = %q", got)
	}
}
