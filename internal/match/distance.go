package match

// Distance is the Levenshtein edit distance between a and b, counted in
// runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	// row[j] is the distance between the current prefix of ra and rb[:j].
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}

	for i := range ra {
		diag := row[0]
		row[0] = i + 1

		for j := range rb {
			up := row[j+1]

			cost := 1
			if ra[i] == rb[j] {
				cost = 0
			}

			row[j+1] = min(up+1, row[j]+1, diag+cost)
			diag = up
		}
	}

	return row[len(rb)]
}

// Similarity maps the distance of a and b to [0, 1], where 1 means equal
// strings.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}

	return 1 - float64(Distance(a, b))/float64(longest)
}
