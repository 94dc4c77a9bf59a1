package api

import (
	"sync"

	"github.com/google/uuid"
)

type ConversionStore struct {
	mu          sync.Mutex
	conversions map[string]*Conversion
	order       []string
}

func NewConversionStore() *ConversionStore {
	return &ConversionStore{
		conversions: make(map[string]*Conversion),
	}
}

// Add assigns conv an ID and stores a copy of it.
func (s *ConversionStore) Add(conv Conversion) Conversion {
	conv.ID = newConversionID()
	conv.Object = "conversion"

	s.mu.Lock()
	s.conversions[conv.ID] = &conv
	s.order = append(s.order, conv.ID)
	s.mu.Unlock()

	return conv
}

func (s *ConversionStore) Get(id string) (Conversion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversions[id]
	if !ok {
		return Conversion{}, false
	}
	return *conv, true
}

// List returns every stored conversion in the order it was added.
func (s *ConversionStore) List() []Conversion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conversion, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.conversions[id])
	}
	return out
}

func newConversionID() string {
	return "conv_" + uuid.NewString()
}
