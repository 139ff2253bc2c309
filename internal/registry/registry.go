package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/XavierBriggs/Iris/pkg/contracts"
)

// ErrNoSports is returned when a lookup runs against an empty registry
var ErrNoSports = errors.New("no sport modules registered")

// SportRegistry manages registered sport modules
type SportRegistry struct {
	sports     map[string]contracts.SportModule
	defaultKey string
	mu         sync.RWMutex
}

// NewSportRegistry creates a new sport registry
func NewSportRegistry() *SportRegistry {
	return &SportRegistry{
		sports: make(map[string]contracts.SportModule),
	}
}

// Register adds a sport module to the registry.
// The first module registered becomes the default.
func (r *SportRegistry) Register(sport contracts.SportModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sportKey := sport.GetSportKey()
	if sportKey == "" {
		return fmt.Errorf("sport module has an empty key")
	}
	if _, exists := r.sports[sportKey]; exists {
		return fmt.Errorf("sport %s is already registered", sportKey)
	}

	r.sports[sportKey] = sport
	if r.defaultKey == "" {
		r.defaultKey = sportKey
	}
	return nil
}

// Get retrieves a sport module by key
func (r *SportRegistry) Get(sportKey string) (contracts.SportModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sport, exists := r.sports[sportKey]
	return sport, exists
}

// Resolve returns the module for sportKey, or the default module when sportKey is empty
func (r *SportRegistry) Resolve(sportKey string) (contracts.SportModule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.sports) == 0 {
		return nil, ErrNoSports
	}
	if sportKey == "" {
		sportKey = r.defaultKey
	}

	sport, exists := r.sports[sportKey]
	if !exists {
		return nil, fmt.Errorf("sport %s is not registered (have %v)", sportKey, r.keysLocked())
	}
	return sport, nil
}

// GetAll returns all registered sports ordered by key
func (r *SportRegistry) GetAll() []contracts.SportModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sports := make([]contracts.SportModule, 0, len(r.sports))
	for _, key := range r.keysLocked() {
		sports = append(sports, r.sports[key])
	}
	return sports
}

// Keys returns the registered sport keys in order
func (r *SportRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.keysLocked()
}

func (r *SportRegistry) keysLocked() []string {
	keys := make([]string, 0, len(r.sports))
	for key := range r.sports {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of registered sports
func (r *SportRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sports)
}
