package cli

// FlagSet holds flag values by name. Actions can be called with it without
// parsing a command line.
//
// - implements cli.Flags
type FlagSet map[string]interface{}

// String implements cli.Flags.
func (fset FlagSet) String(name string) string {
	v, _ := fset[name].(string)
	return v
}

// Path implements cli.Flags.
func (fset FlagSet) Path(name string) string {
	return fset.String(name)
}

// Uint64 implements cli.Flags. A non-negative int is accepted to keep the
// tests short.
func (fset FlagSet) Uint64(name string) uint64 {
	switch v := fset[name].(type) {
	case uint64:
		return v
	case int:
		if v >= 0 {
			return uint64(v)
		}
	}

	return 0
}

// Bool implements cli.Flags.
func (fset FlagSet) Bool(name string) bool {
	v, _ := fset[name].(bool)
	return v
}
