package service

import (
	"strings"
	"unicode/utf8"
)

// Fixed values used when the model output has to be scraped. None of these are
// read from the text.
const (
	HeuristicPrepTime = "15 minutes"
	HeuristicCookTime = "30 minutes"
	HeuristicServings = 4
)

type scanState int

const (
	beforeIngredients scanState = iota
	inIngredients
	inInstructions
)

// ParseHeuristicRecipe rebuilds a recipe from free text.
//
// The title is the first line with one leading '#' removed. The description is
// the first line that does not start with '#' and is longer than 30
// characters. The ingredients section opens at a line whose first
// "ingredients" keyword is followed by ':' or ends the line once markdown
// decoration is removed, and closes at the next "instructions" anywhere in the
// text, even mid-line. Without that closing keyword there are no ingredients.
// Instructions run from there to the end of the text; an instructions header
// seen before any ingredients section also opens them.
func ParseHeuristicRecipe(raw string) GeneratedRecipe {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	recipe := GeneratedRecipe{
		Title:        strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[0]), "#")),
		Description:  findDescription(lines),
		Ingredients:  []GeneratedIngredient{},
		Instructions: InstructionList{},
		PrepTime:     HeuristicPrepTime,
		CookTime:     HeuristicCookTime,
		Servings:     HeuristicServings,
	}

	state := beforeIngredients
	for _, line := range lines {
		if state == beforeIngredients {
			state, line = openSection(line)
			if state == beforeIngredients {
				continue
			}
		}

		switch state {
		case inIngredients:
			idx := indexFold(line, "instructions")
			if idx < 0 {
				if text := strings.TrimSpace(line); text != "" {
					recipe.Ingredients = append(recipe.Ingredients, GeneratedIngredient{Name: text})
				}
				continue
			}
			if text := strings.Trim(line[:idx], headerDecoration); text != "" {
				recipe.Ingredients = append(recipe.Ingredients, GeneratedIngredient{Name: text})
			}
			state = inInstructions
			recipe.Instructions = appendLine(recipe.Instructions, strings.TrimLeft(line[idx+len("instructions"):], ":"+headerDecoration))
		case inInstructions:
			recipe.Instructions = appendLine(recipe.Instructions, line)
		}
	}

	if state == inIngredients {
		recipe.Ingredients = []GeneratedIngredient{}
	}
	return recipe
}

const headerDecoration = "#*_ \t"

// openSection detects the header that starts scanning. When both keywords
// appear on the line the earlier one wins. The returned text is what follows
// the header on the same line.
func openSection(line string) (scanState, string) {
	ingredients := indexFold(line, "ingredients")
	instructions := indexFold(line, "instructions")
	if instructions >= 0 && (ingredients < 0 || instructions < ingredients) {
		if rest, ok := sectionHeader(line, "instructions"); ok {
			return inInstructions, rest
		}
	}
	if rest, ok := sectionHeader(line, "ingredients"); ok {
		return inIngredients, rest
	}
	return beforeIngredients, ""
}

func findDescription(lines []string) string {
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if !strings.HasPrefix(text, "#") && utf8.RuneCountInString(text) > 30 {
			return text
		}
	}
	return ""
}

// sectionHeader reports whether line opens the keyword section and returns
// the text following the header on the same line
func sectionHeader(line, keyword string) (string, bool) {
	idx := indexFold(line, keyword)
	if idx < 0 {
		return "", false
	}

	after := strings.TrimSpace(line[idx+len(keyword):])
	if strings.HasPrefix(after, ":") {
		return strings.TrimSpace(strings.TrimLeft(after[1:], "*_ ")), true
	}

	decorated := strings.Trim(strings.TrimSpace(line), ":"+headerDecoration)
	if strings.EqualFold(decorated, keyword) {
		return "", true
	}
	return "", false
}

func appendLine(list InstructionList, line string) InstructionList {
	if text := strings.TrimSpace(line); text != "" {
		return append(list, text)
	}
	return list
}

// indexFold is a case-insensitive strings.Index for an ASCII keyword. Byte
// offsets stay valid for slicing line.
func indexFold(line, keyword string) int {
	n := len(keyword)
	for i := 0; i+n <= len(line); i++ {
		if strings.EqualFold(line[i:i+n], keyword) {
			return i
		}
	}
	return -1
}
