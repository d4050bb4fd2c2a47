package importer

import (
	"fmt"
	"regexp"
	"strconv"

	"recipebox/internal/foodapi"
	"recipebox/internal/recipe"
)

// Source field names of the COOKRCP01 service.
const (
	fieldName        = "RCP_NM"
	fieldCategory    = "RCP_PAT2"
	fieldImage       = "ATT_FILE_NO_MAIN"
	fieldIngredients = "RCP_PARTS_DTLS"
	fieldCalories    = "INFO_ENG"
	fieldCarbs       = "INFO_CAR"
	fieldProtein     = "INFO_PRO"
	fieldFat         = "INFO_FAT"
	fieldSodium      = "INFO_NA"
)

const maxSteps = 20

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	stepOrdinal = regexp.MustCompile(`^\d+\.\s*`)
)

// Extracted is the part of a source record that gets persisted.
type Extracted struct {
	Recipe    recipe.Recipe
	Nutrition recipe.Nutrition
	Steps     []recipe.Step
}

// Extract maps a source record. ok is false when the name, category or image is missing.
func Extract(rec foodapi.Record) (Extracted, bool) {
	r := recipe.Recipe{
		Name:        rec.String(fieldName),
		Category:    rec.String(fieldCategory),
		ImageURL:    rec.String(fieldImage),
		Ingredients: rec.String(fieldIngredients),
	}
	if r.Name == "" || r.Category == "" || r.ImageURL == "" {
		return Extracted{}, false
	}
	return Extracted{
		Recipe:    r,
		Nutrition: ExtractNutrition(rec),
		Steps:     ExtractSteps(rec),
	}, true
}

// ExtractNutrition reads the leading number of each nutrition field.
// Calories keep only the integer part; anything unparsable is 0.
func ExtractNutrition(rec foodapi.Record) recipe.Nutrition {
	return recipe.Nutrition{
		Calories:      leadingInt(rec.String(fieldCalories)),
		Carbohydrates: leadingFloat(rec.String(fieldCarbs)),
		Protein:       leadingFloat(rec.String(fieldProtein)),
		Fat:           leadingFloat(rec.String(fieldFat)),
		Sodium:        leadingFloat(rec.String(fieldSodium)),
	}
}

// ExtractSteps probes MANUAL01..MANUAL20. A step keeps the number of its slot, and a
// leading "N." ordinal is removed from its text.
func ExtractSteps(rec foodapi.Record) []recipe.Step {
	var steps []recipe.Step
	for i := 1; i <= maxSteps; i++ {
		text := rec.String(fmt.Sprintf("MANUAL%02d", i))
		if text == "" {
			continue
		}
		steps = append(steps, recipe.Step{
			Number:      i,
			Description: stepOrdinal.ReplaceAllString(text, ""),
		})
	}
	return steps
}

func leadingInt(s string) int {
	m := intPrefix.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func leadingFloat(s string) float64 {
	m := floatPrefix.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
