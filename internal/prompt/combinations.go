package prompt

// Source is a named list of candidate values for one template parameter.
type Source struct {
	Name   string
	Values []Value
}

// Combinations returns the Cartesian product of the sources. The first source
// varies slowest and the last fastest. No sources yields a single empty
// combination; any source without candidates yields none.
func Combinations(sources []Source) []*Object {
	total := 1
	for _, s := range sources {
		total *= len(s.Values)
	}
	if total == 0 {
		return nil
	}

	combos := make([]*Object, 0, total)
	indices := make([]int, len(sources))
	for {
		combo := NewObject()
		for i, s := range sources {
			combo.Set(s.Name, s.Values[indices[i]])
		}
		combos = append(combos, combo)

		i := len(sources) - 1
		for ; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(sources[i].Values) {
				break
			}
			indices[i] = 0
		}
		if i < 0 {
			return combos
		}
	}
}
