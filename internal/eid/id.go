// Package eid defines the entity identifier shared by every other package
// (property, entity, domain, op, router, world, persist) so that an entity
// reference can cross package boundaries without importing the entity graph
// itself.
package eid

import "fmt"

// ID packs a 32-bit index in the low bits and a 32-bit generation in the
// high bits, a generational-index scheme that roots the whole entity
// graph, so that a reference held in an EntityRef property can never be
// silently revived: once an index is reused its generation no longer
// matches.
type ID uint64

// Zero is the well-known empty reference (no entity, or a system op). It is
// also the first ID a fresh Pool hands out (index 0, generation 0), which
// the world root receives; persistence stores the root's children with a
// NULL parent_id on that basis.
const Zero ID = 0

func New(index uint32, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

func (id ID) Index() uint32      { return uint32(id) }
func (id ID) Generation() uint32 { return uint32(id >> 32) }
func (id ID) IsZero() bool       { return id == Zero }

func (id ID) String() string {
	return fmt.Sprintf("%d.%d", id.Index(), id.Generation())
}

// Parse reverses String, for decoding the "id" string form of an entity
// reference off the wire ("Entity-reference wire form: an object
// with id (string)").
func Parse(s string) (ID, error) {
	var idx, gen uint32
	if _, err := fmt.Sscanf(s, "%d.%d", &idx, &gen); err != nil {
		return Zero, fmt.Errorf("parse entity id %q: %w", s, err)
	}
	return New(idx, gen), nil
}

// Pool allocates generational IDs with a free list, so a destroyed entity's
// index can be recycled while every existing reference to it becomes stale.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *Pool) Create() ID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return New(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return New(idx, p.generations[idx])
}

// Reserve makes sure index idx is allocated at generation gen without
// going through the free list — used by persistence restore, which
// recreates entities at their previously stored ids.
func (p *Pool) Reserve(idx, gen uint32) {
	for uint32(len(p.generations)) <= idx {
		p.generations = append(p.generations, 0)
	}
	p.generations[idx] = gen
	if idx >= p.nextIndex {
		p.nextIndex = idx + 1
	}
}

func (p *Pool) Alive(id ID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *Pool) Destroy(id ID) {
	idx := id.Index()
	if idx >= p.nextIndex || p.generations[idx] != id.Generation() {
		return // already destroyed, or stale reference
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}
