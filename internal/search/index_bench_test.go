package search

import (
	"fmt"
	"math"
	"testing"

	"github.com/hyperjump/wavekb/internal/store"
	"github.com/hyperjump/wavekb/internal/wave"
)

func benchStore(b *testing.B, n, dim int) *store.Store {
	b.Helper()
	s := store.New()
	c := wave.NewConverter()
	for i := 0; i < n; i++ {
		emb := make([]float64, dim)
		for j := range emb {
			emb[j] = math.Sin(float64(i*dim+j)) * 0.1
		}
		p, err := c.ConvertWithID(fmt.Sprintf("p%d", i), emb, nil)
		if err != nil {
			b.Fatal(err)
		}
		if err := s.Insert(p); err != nil {
			b.Fatal(err)
		}
	}
	return s
}

func BenchmarkIndexSearch100(b *testing.B) {
	s := benchStore(b, 100, 384)
	query, _ := wave.NewConverter().Convert(make([]float64, 384), nil)
	idx := NewIndex(nil)
	opts := Options{TopK: 10}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(s, query, opts)
	}
}

func BenchmarkIndexSearch10k(b *testing.B) {
	s := benchStore(b, 10000, 64)
	query, _ := wave.NewConverter().Convert(make([]float64, 64), nil)
	idx := NewIndex(nil)
	opts := Options{TopK: 10, MinResonance: 0.5}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(s, query, opts)
	}
}

func BenchmarkConvert384(b *testing.B) {
	emb := make([]float64, 384)
	for i := range emb {
		emb[i] = math.Cos(float64(i)) * 0.05
	}
	c := wave.NewConverter()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Convert(emb, nil)
	}
}
