package series

import (
	"slices"

	"github.com/voluzi/rtst/pkg/sar"
)

// Source is a read-only view of the sample history.
type Source interface {
	Since(kind sar.Kind, cutoff int64) []*sar.Record
}

// Service answers history queries for a fixed set of network interfaces.
type Service struct {
	source     Source
	interfaces []string
}

func NewService(source Source, interfaces []string) *Service {
	return &Service{
		source:     source,
		interfaces: slices.Clone(interfaces),
	}
}

// Interfaces returns the network interfaces rendered in net documents.
func (s *Service) Interfaces() []string {
	return slices.Clone(s.interfaces)
}

// Query renders every record of kind newer than cutoff.
func (s *Service) Query(kind sar.Kind, cutoff int64) (*Document, error) {
	return Render(kind, s.source.Since(kind, cutoff), s.interfaces)
}
