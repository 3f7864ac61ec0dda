// Package repo provides a small generic neo4j repository used to persist
// extracted threads as a graph.
package repo

import "strings"

// Ref identifies a node by label and key property.
type Ref struct {
	Label string
	Key   string
	ID    any
}

// sanitizeIdent keeps only [A-Za-z0-9_] so labels and relationship types can
// be interpolated into Cypher.
func sanitizeIdent(s, fallback string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

func sanitizeRelType(t string) string {
	return strings.ToUpper(sanitizeIdent(t, "RELATED_TO"))
}
