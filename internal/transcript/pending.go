package transcript

import (
	"sync"

	"github.com/TEQST/TEQST-Backend-sub000/internal/artifacts"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

type replacement struct {
	name string
	temp string
}

// stage tracks temporaries written while building new artifacts.
type stage struct {
	store *artifacts.Store
	log   logger.Logger
	temps []string
}

func newStage(store *artifacts.Store, log logger.Logger) *stage {
	return &stage{store: store, log: log}
}

func (s *stage) track(temp string) {
	s.temps = append(s.temps, temp)
}

// discard removes every tracked temporary.
func (s *stage) discard() {
	for _, temp := range s.temps {
		if err := s.store.Delete(temp); err != nil {
			s.log.Warn("failed to remove temporary artifact", logger.String("name", temp), logger.Error(err))
		}
	}
	s.temps = nil
}

// swap moves each staged temporary onto its final name, parking the previous
// blob under a hidden name. If any move fails, the moves already made are
// undone and the temporaries removed.
func (s *stage) swap(replacements []replacement) (*Pending, error) {
	p := &Pending{store: s.store, log: s.log}
	for _, r := range replacements {
		if err := p.replace(r); err != nil {
			p.Rollback()
			s.discard()
			return nil, err
		}
	}
	s.temps = nil
	return p, nil
}

type swapped struct {
	name     string
	previous string // "" when name did not exist before
}

// Pending holds replaced artifacts until the surrounding unit of work settles.
// Commit drops the previous versions; Rollback puts them back. Only the first
// of the two calls has an effect.
type Pending struct {
	store *artifacts.Store
	log   logger.Logger
	done  []swapped
	once  sync.Once
}

func (p *Pending) replace(r replacement) error {
	exists, err := p.store.Exists(r.name)
	if err != nil {
		return err
	}
	var previous string
	if exists {
		previous = p.store.TempName(r.name)
		if err := p.store.Rename(r.name, previous); err != nil {
			return err
		}
	}
	if err := p.store.Rename(r.temp, r.name); err != nil {
		if previous != "" {
			if rerr := p.store.Rename(previous, r.name); rerr != nil {
				p.log.Error("failed to restore artifact", logger.String("name", r.name), logger.Error(rerr))
			}
		}
		return err
	}
	p.done = append(p.done, swapped{name: r.name, previous: previous})
	return nil
}

// Commit deletes the previous versions of the replaced artifacts.
func (p *Pending) Commit() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		for _, s := range p.done {
			if s.previous == "" {
				continue
			}
			if err := p.store.Delete(s.previous); err != nil {
				p.log.Warn("failed to remove replaced artifact", logger.String("name", s.previous), logger.Error(err))
			}
		}
	})
}

// Rollback restores the previous versions in reverse order, deleting
// artifacts that did not exist before.
func (p *Pending) Rollback() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		for i := len(p.done) - 1; i >= 0; i-- {
			s := p.done[i]
			var err error
			if s.previous == "" {
				err = p.store.Delete(s.name)
			} else {
				err = p.store.Restore(s.previous, s.name)
			}
			if err != nil {
				p.log.Error("failed to roll back artifact", logger.String("name", s.name), logger.Error(err))
			}
		}
	})
}
