package settings

// EnvStore reads and writes persistent environment variables.
type EnvStore interface {
	Store
	Get(scope Scope, key string) (string, bool, error)
}

// FileEnv persists variables as exports in managed profile snippets.
type FileEnv struct {
	Paths Paths
	// Owner, when set, receives user-scope files written as root.
	Owner *Owner
}

func (s FileEnv) file(scope Scope) managedFile {
	var d dialect = posixLine{verb: "export"}
	if s.Paths.PowerShell {
		d = psEnv{}
	}
	m := managedFile{path: s.Paths.env(scope), dialect: d}
	if scope == ScopeUser {
		m.owner = s.Owner
	}
	return m
}

func (s FileEnv) Set(scope Scope, key, value string) error {
	return s.file(scope).set(key, value)
}

func (s FileEnv) Get(scope Scope, key string) (string, bool, error) {
	return s.file(scope).get(key)
}
