package warehouse

import (
	"github.com/jackc/pgx/v5"
)

// copyRow is a row that can be written with COPY.
type copyRow interface {
	CopyValues() []any
}

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel,
// so the producer and the COPY writer run in lockstep.
type ChannelSource[T copyRow] struct {
	ch      <-chan T
	current T
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource[T copyRow](ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource[T]) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err always returns nil; producers report failures on their own channel.
func (s *ChannelSource[T]) Err() error {
	return nil
}

var _ pgx.CopyFromSource = (*ChannelSource[copyRow])(nil)
