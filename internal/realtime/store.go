package realtime

import (
	"sync"

	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// Store holds the latest parsed alerts in a thread-safe manner. It satisfies
// the overlay coordinator's AlertSource.
type Store struct {
	mu     sync.RWMutex
	alerts []transit.Alert
}

// NewStore creates an empty alerts store.
func NewStore() *Store {
	return &Store{}
}

// SetAlerts replaces all alerts.
func (s *Store) SetAlerts(alerts []transit.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
}

// Active returns a copy of all current alerts.
func (s *Store) Active() []transit.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]transit.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// ForRoute returns alerts naming a specific route in their informed
// entities.
func (s *Store) ForRoute(routeID string) []transit.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []transit.Alert
	for _, a := range s.alerts {
		for _, e := range a.InformedEntities {
			if e == routeID {
				result = append(result, a)
				break
			}
		}
	}
	return result
}
