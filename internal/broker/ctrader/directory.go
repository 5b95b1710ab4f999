package ctrader

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"smc-trading-bridge/internal/types"
)

const defaultDigits = 5

// directorySnapshot is immutable once published.
type directorySnapshot struct {
	byName map[string]types.Instrument
	byID   map[int64]types.Instrument
	names  []string
}

// Directory is the instrument table. Replace publishes a whole new
// snapshot, so a reader sees either the previous table or the next one.
type Directory struct {
	mu   sync.RWMutex
	snap *directorySnapshot
}

func NewDirectory() *Directory {
	return &Directory{snap: buildSnapshot(nil)}
}

func buildSnapshot(list []types.Instrument) *directorySnapshot {
	s := &directorySnapshot{
		byName: make(map[string]types.Instrument, len(list)),
		byID:   make(map[int64]types.Instrument, len(list)),
		names:  make([]string, 0, len(list)),
	}
	for _, inst := range list {
		key := strings.ToUpper(inst.Name)
		if _, dup := s.byName[key]; dup {
			continue
		}
		s.names = append(s.names, inst.Name)
		s.byName[key] = inst
		s.byID[inst.ID] = inst
	}
	return s
}

// Replace swaps in a new table built from list.
func (d *Directory) Replace(list []types.Instrument) {
	next := buildSnapshot(list)
	d.mu.Lock()
	d.snap = next
	d.mu.Unlock()
}

func (d *Directory) current() *directorySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// Resolve looks a name up case-insensitively.
func (d *Directory) Resolve(name string) (types.Instrument, error) {
	s := d.current()
	if len(s.names) == 0 {
		return types.Instrument{}, ErrNotReady
	}
	inst, ok := s.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return types.Instrument{}, fmt.Errorf("%w: '%s'", ErrUnknownSymbol, name)
	}
	return inst, nil
}

func (d *Directory) ByID(id int64) (types.Instrument, bool) {
	inst, ok := d.current().byID[id]
	return inst, ok
}

// NameOf renders a symbol id, falling back to the decimal id.
func (d *Directory) NameOf(id int64) string {
	if inst, ok := d.ByID(id); ok {
		return inst.Name
	}
	return strconv.FormatInt(id, 10)
}

// Names returns the instrument names in venue order.
func (d *Directory) Names() []string {
	s := d.current()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (d *Directory) Len() int {
	return len(d.current().names)
}

func (d *Directory) Ready() bool {
	return d.Len() > 0
}

// instrumentsFromWire applies the digits fallback: digits, then
// pipPosition, then 5.
func instrumentsFromWire(symbols []lightSymbol) []types.Instrument {
	out := make([]types.Instrument, 0, len(symbols))
	for _, s := range symbols {
		if s.SymbolName == "" {
			continue
		}
		digits := defaultDigits
		switch {
		case s.Digits != nil:
			digits = *s.Digits
		case s.PipPosition != nil:
			digits = *s.PipPosition
		}
		out = append(out, types.Instrument{ID: s.SymbolID, Name: s.SymbolName, Digits: digits})
	}
	return out
}
