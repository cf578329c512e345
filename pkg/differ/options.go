package differ

// Option is a functional option for configuring a Differ.
type Option func(*Differ)

// WithIgnoredFields adds keys to skip during comparison. A plain key such
// as "id" is skipped at the top level; a dotted key skips that exact path.
func WithIgnoredFields(fields ...string) Option {
	return func(d *Differ) {
		for _, field := range fields {
			d.ignore[field] = true
		}
	}
}

// WithoutDefaultIgnores clears the default ignore set so id differences
// are reported too.
func WithoutDefaultIgnores() Option {
	return func(d *Differ) {
		delete(d.ignore, defaultIgnored)
	}
}
