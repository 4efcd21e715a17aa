package history

// Actor identifies who requested a fetch, for audit logging.
type Actor struct {
	// Hostname is the machine name the request came from.
	Hostname string
	// Username is the system user who ran the query.
	Username string
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}
