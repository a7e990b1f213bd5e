package repository

import "github.com/doug-martin/goqu/v9"

// Scope narrows node queries to one project and, optionally, a collection and a document key.
type Scope struct {
	project    string
	collection string
	key        string
}

func ProjectScope(project string) Scope {
	return Scope{project: project}
}

func (s Scope) Collection(name string) Scope {
	s.collection = name
	return s
}

func (s Scope) Key(key string) Scope {
	s.key = key
	return s
}

// Ex renders the scope as a goqu condition. Empty parts are left out.
func (s Scope) Ex() goqu.Ex {
	conditions := goqu.Ex{"project": s.project}
	if s.collection != "" {
		conditions["collection"] = s.collection
	}
	if s.key != "" {
		conditions["key"] = s.key
	}
	return conditions
}
