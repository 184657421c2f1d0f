package types

import "requitec/report"

// AliasTable looks up the target type of type aliases.
type AliasTable interface {
	// AliasTarget returns the type the alias stands for.
	AliasTarget(id AliasID) Type
}

// ResolveAlias replaces an alias root with the root of its target until the
// root is no longer an alias.  The target's subtypes become the innermost
// layers of the result.  The qualifiers which applied to the alias move to the
// outermost layer of the target, so every qualifier encountered survives.  An
// alias which refers back to itself is an error.
func ResolveAlias(t Type, aliases AliasTable) (Type, error) {
	if !t.IsTypeAlias() {
		return t, nil
	}

	result := Type{Root: t.Root, Qualifiers: t.Qualifiers, Subtypes: t.copySubtypes(0)}
	visited := make(map[AliasID]struct{})

	for {
		ar, ok := result.Root.(AliasRoot)
		if !ok {
			return result, nil
		}

		if _, ok := visited[ar.ID]; ok {
			return Type{}, report.Raise(report.AliasCycle, nil, "type alias `%s` refers to itself", ar.Name)
		}
		visited[ar.ID] = struct{}{}

		target := aliases.AliasTarget(ar.ID)

		subtypes := make([]Subtype, 0, len(target.Subtypes)+len(result.Subtypes))
		subtypes = append(subtypes, target.Subtypes...)
		subtypes = append(subtypes, result.Subtypes...)

		if len(target.Subtypes) > 0 {
			outer := &subtypes[len(target.Subtypes)-1]
			outer.Qualifiers |= result.Qualifiers
			result = Type{Root: target.Root, Qualifiers: target.Qualifiers, Subtypes: subtypes}
		} else {
			result = Type{Root: target.Root, Qualifiers: result.Qualifiers | target.Qualifiers, Subtypes: subtypes}
		}
	}
}
