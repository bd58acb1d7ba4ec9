package layout

import "slices"

type entry[L any] struct {
	path Path
	leaf L
}

func entries[L any](l leaves[L]) []entry[L] {
	es := make([]entry[L], len(l.paths))
	for i := range l.paths {
		es[i] = entry[L]{path: l.paths[i], leaf: l.items[i]}
	}

	return es
}

// group splits es by their key at depth, keeping the order in which keys
// first appear.
func group[L any](es []entry[L], depth int) ([]any, map[any][]entry[L]) {
	var keys []any

	groups := map[any][]entry[L]{}

	for _, e := range es {
		k := e.path[depth]
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}

		groups[k] = append(groups[k], e)
	}

	return keys, groups
}

func sortedIndexes(keys []any) []any {
	out := slices.Clone(keys)
	slices.SortFunc(out, func(a, b any) int { return a.(int) - b.(int) })

	return out
}

func buildInp(es []entry[InpCrown], depth int, policy ExtraPolicy) InpCrown {
	if len(es) == 1 && len(es[0].path) == depth {
		return es[0].leaf
	}

	keys, groups := group(es, depth)

	if _, isList := keys[0].(int); isList {
		c := &InpListCrown{ExtraPolicy: policy}
		for _, k := range sortedIndexes(keys) {
			c.Items = append(c.Items, buildInp(groups[k], depth+1, policy))
		}

		return c
	}

	c := &InpDictCrown{Map: make(map[string]InpCrown, len(keys)), ExtraPolicy: policy}
	for _, k := range keys {
		c.Keys = append(c.Keys, k.(string))
		c.Map[k.(string)] = buildInp(groups[k], depth+1, policy)
	}

	return c
}

func buildOut(es []entry[OutCrown], depth int, sieves map[string]Sieve) OutCrown {
	if len(es) == 1 && len(es[0].path) == depth {
		return es[0].leaf
	}

	keys, groups := group(es, depth)

	if _, isList := keys[0].(int); isList {
		c := &OutListCrown{}
		for _, k := range sortedIndexes(keys) {
			c.Items = append(c.Items, buildOut(groups[k], depth+1, sieves))
		}

		return c
	}

	c := &OutDictCrown{Map: make(map[string]OutCrown, len(keys)), Sieves: map[string]Sieve{}}

	for _, k := range keys {
		key := k.(string)
		sub := groups[k]

		c.Keys = append(c.Keys, key)
		c.Map[key] = buildOut(sub, depth+1, sieves)

		if len(sub) == 1 && len(sub[0].path) == depth+1 {
			if f, ok := sub[0].leaf.(OutFieldCrown); ok {
				if s, ok := sieves[f.ID]; ok {
					c.Sieves[key] = s
				}
			}
		}
	}

	return c
}

// BuildInpCrown builds the input crown of leaves addressed by paths. An
// empty set gives an empty dict, or an empty list when asList is set.
func BuildInpCrown(paths []Path, items []InpCrown, policy ExtraPolicy, asList bool) InpCrown {
	if len(paths) == 0 {
		if asList {
			return &InpListCrown{ExtraPolicy: policy}
		}

		return &InpDictCrown{Map: map[string]InpCrown{}, ExtraPolicy: policy}
	}

	return buildInp(entries(leaves[InpCrown]{paths: paths, items: items}), 0, policy)
}

// BuildOutCrown builds the output crown of leaves addressed by paths.
// Sieves are keyed by field id.
func BuildOutCrown(paths []Path, items []OutCrown, sieves map[string]Sieve, asList bool) OutCrown {
	if len(paths) == 0 {
		if asList {
			return &OutListCrown{}
		}

		return &OutDictCrown{Map: map[string]OutCrown{}, Sieves: map[string]Sieve{}}
	}

	return buildOut(entries(leaves[OutCrown]{paths: paths, items: items}), 0, sieves)
}

func hasListKey(paths []Path) bool {
	for _, p := range paths {
		for _, k := range p {
			if _, ok := k.(int); ok {
				return true
			}
		}
	}

	return false
}
