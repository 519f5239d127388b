// Package customizer stores the customizers authored for printable files.
package customizer

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/config"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// Store is a port.CustomizerResolver keyed by customizer name.
type Store struct {
	mu          sync.RWMutex
	customizers map[string]*model.Customizer
}

// NewStore creates a Store holding customizers.
func NewStore(customizers ...*model.Customizer) *Store {
	s := &Store{customizers: make(map[string]*model.Customizer, len(customizers))}
	for _, c := range customizers {
		s.customizers[c.Name] = c
	}
	return s
}

// Put adds or replaces c.
func (s *Store) Put(c *model.Customizer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customizers[c.Name] = c
}

// Get returns the customizer named name.
func (s *Store) Get(name string) (*model.Customizer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customizers[name]
	return c, ok
}

// Lookup finds the customizer for fileName. A customizer named after the file wins,
// otherwise the first, by customizer name, whose printable name and extension make up the file name.
func (s *Store) Lookup(fileName string) *model.Customizer {
	base := filepath.Base(fileName)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.customizers[base]; ok {
		return c
	}
	names := make([]string, 0, len(s.customizers))
	for name := range s.customizers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := s.customizers[name]
		if c.PrintableName == "" {
			continue
		}
		printable := c.PrintableName
		if c.PrintableExtension != "" {
			printable += "." + strings.TrimPrefix(c.PrintableExtension, ".")
		}
		if strings.EqualFold(printable, base) {
			return c
		}
	}
	return nil
}

// FromConfig converts a configured customizer definition.
func FromConfig(cc config.CustomizerConfig) *model.Customizer {
	c := &model.Customizer{
		Name:               cc.Name,
		PrinterName:        cc.PrinterName,
		PrintableName:      cc.PrintableName,
		PrintableExtension: cc.PrintableExtension,
		SupportsTransform:  cc.SupportsTransform,
	}
	if cc.Transform != nil {
		ts := model.NewTransformSettings()
		ts.XTranslate = cc.Transform.XTranslate
		ts.YTranslate = cc.Transform.YTranslate
		if cc.Transform.XScale != nil {
			ts.XScale = *cc.Transform.XScale
		}
		if cc.Transform.YScale != nil {
			ts.YScale = *cc.Transform.YScale
		}
		c.Transform = ts
	}
	return c
}

// NewStoreFromConfig loads the configured customizers.
func NewStoreFromConfig(cfg *config.Config) (*Store, error) {
	defs, err := cfg.Host.CustomizerDefinitions()
	if err != nil {
		return nil, err
	}
	s := NewStore()
	for _, def := range defs {
		s.Put(FromConfig(def))
	}
	return s, nil
}

var _ port.CustomizerResolver = (*Store)(nil)
