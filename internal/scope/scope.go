package scope

// Scope is the lifetime class governing cache reuse of a fixture value.
// Lifetimes increase strictly: Test < Module < Session.
type Scope int

const (
	Test Scope = iota
	Module
	Session
)

func (s Scope) String() string {
	switch s {
	case Test:
		return "test"
	case Module:
		return "module"
	case Session:
		return "session"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the three defined lifetimes.
func (s Scope) Valid() bool {
	return s >= Test && s <= Session
}

// Outlives reports whether a value cached at scope s lives at least as long
// as one cached at other. A definition may only depend on definitions whose
// scope Outlives its own.
func (s Scope) Outlives(other Scope) bool {
	return s >= other
}
