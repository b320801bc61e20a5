package cards

// BaseCatalog returns the built-in card set. Servers normally load a
// catalog from disk at startup; the built-in set backs the demo decks
// and tests.
func BaseCatalog() Catalog {
	entries := []Card{
		{ID: "spirit-earth", Name: "Earth Spirit", Class: ClassSpirit, Element: ElementEarth},
		{ID: "spirit-water", Name: "Water Spirit", Class: ClassSpirit, Element: ElementWater},
		{ID: "spirit-thunder", Name: "Thunder Spirit", Class: ClassSpirit, Element: ElementThunder},
		{ID: "spirit-fire", Name: "Fire Spirit", Class: ClassSpirit, Element: ElementFire},
		{ID: "spirit-wind", Name: "Wind Spirit", Class: ClassSpirit, Element: ElementWind},
		{ID: "spirit-rainbow", Name: "Rainbow Spirit", Class: ClassSpirit, Element: ElementRainbow},

		{
			ID: "teratlas", Name: "Teratlas", Class: ClassElestral,
			Cost: []Element{ElementEarth}, Attack: 2, Defense: 5,
		},
		{
			ID: "vipyro", Name: "Vipyro", Class: ClassElestral,
			Cost: []Element{ElementFire}, Attack: 4, Defense: 2,
		},
		{
			ID: "leviaphin", Name: "Leviaphin", Class: ClassElestral,
			Cost: []Element{ElementWater, ElementWater}, Attack: 5, Defense: 4,
			Effect: Effect{ID: "leviaphin-dive", Text: "Submerge to negate one attack."},
		},
		{
			ID: "zaptor", Name: "Zaptor", Class: ClassElestral,
			Cost: []Element{ElementThunder, ElementRainbow}, Attack: 6, Defense: 3,
		},

		{
			ID: "ancient-relic", Name: "Ancient Relic", Class: ClassRune,
			Subclasses: []string{"artifact"},
			Cost:       []Element{ElementEarth},
			Effect:     Effect{ID: "relic-bolster", Text: "The equipped elestral gains 2 defense."},
		},
		{
			ID: "sudden-storm", Name: "Sudden Storm", Class: ClassRune,
			Subclasses: []string{SubclassInvoke},
			Cost:       []Element{ElementWind},
			Effect:     Effect{ID: "storm-draw", Text: "Draw a card."},
		},
		{
			ID: "null-ward", Name: "Null Ward", Class: ClassRune,
			Subclasses: []string{SubclassCounter},
			Cost:       []Element{ElementRainbow},
			Effect:     Effect{ID: "ward-negate", Text: "Negate the cast of a rune."},
		},
		{
			ID: "grand-arena", Name: "Grand Arena", Class: ClassRune,
			Subclasses: []string{SubclassStadium},
			Cost:       []Element{ElementEarth, ElementEarth},
			Effect:     Effect{ID: "arena-boost", Text: "All elestrals gain 1 attack."},
		},
	}

	cat := make(Catalog, len(entries))
	for _, c := range entries {
		cat[c.ID] = c
	}
	return cat
}
