package property

// Flags is a bitset of per-property flags.
type Flags uint16

const (
	// FlagEphemeral ("persistence_ephem") marks a property that is never
	// written to the backing store.
	FlagEphemeral Flags = 1 << iota
	// FlagClean ("persistence_clean") is set once the current base value
	// has been flushed to the store, and cleared on every Set.
	FlagClean
	// FlagSeen ("persistence_seen") marks that a row already exists for
	// this property in the store (so a later write is an UPDATE, not an
	// INSERT).
	FlagSeen
	// FlagInstance marks a property that belongs to the entity instance,
	// not shared with the type's defaults.
	FlagInstance
	// FlagClassDefault marks a property owned by the TypeInfo, not the
	// entity — installing it on an entity copies it first.
	FlagClassDefault
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f *Flags) Set(bit Flags)   { *f |= bit }
func (f *Flags) Clear(bit Flags) { *f &^= bit }
