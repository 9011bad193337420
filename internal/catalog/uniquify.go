package catalog

// uniquifyTitles implements spec.md §4.3's title-uniquification pass:
// initialize title_shown to title (or id), then repeatedly disambiguate
// colliding entries — first by appending "(version)", then the first
// eight characters of machine_id, then "(id)" as a last resort — until
// all titles are distinct or no pass makes further progress.
func uniquifyTitles(entries []*Entry) {
	for _, e := range entries {
		if e.Title != "" {
			e.TitleShown = e.Title
		} else {
			e.TitleShown = e.ID
		}
	}

	for {
		groups := collideGroups(entries)
		if len(groups) == 0 {
			return
		}

		progressed := false
		for _, g := range groups {
			if disambiguateByVersion(g) {
				progressed = true
			}
		}

		groups = collideGroups(entries)
		for _, g := range groups {
			if disambiguateByMachineID(g) {
				progressed = true
			}
		}

		groups = collideGroups(entries)
		for _, g := range groups {
			disambiguateByID(g)
			progressed = true
		}

		if !progressed {
			for _, g := range collideGroups(entries) {
				for _, e := range g {
					e.NonUnique = true
				}
			}
			return
		}
	}
}

// collideGroups returns, for each distinct title_shown shared by two or
// more entries, the slice of entries sharing it.
func collideGroups(entries []*Entry) [][]*Entry {
	byTitle := make(map[string][]*Entry)
	var order []string
	for _, e := range entries {
		if _, ok := byTitle[e.TitleShown]; !ok {
			order = append(order, e.TitleShown)
		}
		byTitle[e.TitleShown] = append(byTitle[e.TitleShown], e)
	}
	var groups [][]*Entry
	for _, t := range order {
		if len(byTitle[t]) > 1 {
			groups = append(groups, byTitle[t])
		}
	}
	return groups
}

func disambiguateByVersion(group []*Entry) bool {
	changed := false
	for _, e := range group {
		if e.Version != "" {
			e.TitleShown = e.TitleShown + " (" + e.Version + ")"
			changed = true
		}
	}
	return changed
}

func disambiguateByMachineID(group []*Entry) bool {
	changed := false
	for _, e := range group {
		if e.MachineID != "" {
			prefix := e.MachineID
			if len(prefix) > 8 {
				prefix = prefix[:8]
			}
			e.TitleShown = e.TitleShown + " " + prefix
			changed = true
		}
	}
	return changed
}

func disambiguateByID(group []*Entry) {
	for _, e := range group {
		e.TitleShown = e.TitleShown + " (" + e.ID + ")"
	}
}
