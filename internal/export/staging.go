package export

import "github.com/gyeh/stclassify/internal/model"

// Staging holds result rows per client, in arrival order, until a file sink
// writes them on Close.
type Staging struct {
	order []string
	rows  map[string][]model.AnalysisResult
}

// Reset drops every staged client.
func (s *Staging) Reset() {
	s.order = s.order[:0]
	s.rows = make(map[string][]model.AnalysisResult)
}

// Put stages rows for clientID, replacing rows staged earlier for it.
func (s *Staging) Put(clientID string, rows []model.AnalysisResult) {
	if s.rows == nil {
		s.rows = make(map[string][]model.AnalysisResult)
	}
	if _, ok := s.rows[clientID]; !ok {
		s.order = append(s.order, clientID)
	}
	s.rows[clientID] = rows
}

// Discard drops clientID. Unknown clients are ignored.
func (s *Staging) Discard(clientID string) {
	if _, ok := s.rows[clientID]; !ok {
		return
	}
	delete(s.rows, clientID)
	for i, id := range s.order {
		if id == clientID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Rows returns every staged row, clients in arrival order.
func (s *Staging) Rows() []model.AnalysisResult {
	var n int
	for _, id := range s.order {
		n += len(s.rows[id])
	}
	out := make([]model.AnalysisResult, 0, n)
	for _, id := range s.order {
		out = append(out, s.rows[id]...)
	}
	return out
}
