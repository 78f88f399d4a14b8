package settings

// AliasStore keeps aliases in managed shell snippets, one file per scope.
type AliasStore struct {
	Paths Paths
	// Owner, when set, receives user-scope files written as root.
	Owner *Owner
}

func (s AliasStore) file(scope Scope) managedFile {
	var d dialect = posixLine{verb: "alias"}
	if s.Paths.PowerShell {
		d = psAlias{}
	}
	m := managedFile{path: s.Paths.aliases(scope), dialect: d}
	if scope == ScopeUser {
		m.owner = s.Owner
	}
	return m
}

func (s AliasStore) Set(scope Scope, key, value string) error {
	return s.file(scope).set(key, value)
}

func (s AliasStore) Get(scope Scope, key string) (string, bool, error) {
	return s.file(scope).get(key)
}
