package relay

// Resolver maps public recipient aliases to canonical inbox names.
// The table is fixed at construction and safe for concurrent use.
type Resolver struct {
	aliases map[string]string
}

// NewResolver creates a Resolver from the given alias table.
func NewResolver(aliases map[string]string) *Resolver {
	table := make(map[string]string, len(aliases))
	for alias, canonical := range aliases {
		table[alias] = canonical
	}
	return &Resolver{aliases: table}
}

// Resolve returns the canonical name for name, or name itself when it is not
// an alias.
func (r *Resolver) Resolve(name string) string {
	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}
