// Package prompt assembles the fashion photography prompt sent to the
// image synthesis service. Building is pure and deterministic: identical
// inputs always yield the identical prompt, so generations are
// reproducible.
package prompt

import (
	"fmt"
	"strings"

	"github.com/vastralabs/photoshoot/internal/catalog"
)

var sceneDescriptions = map[string]string{
	"studio": "clean minimalist studio background, pure white or soft gray, professional lighting setup",
	"street": "urban street scene, modern city background, natural daylight, architectural elements",
	"cafe":   "cozy cafe interior, warm ambient lighting, blurred background, bokeh effect",
	"nature": "outdoor natural setting, soft sunlight, green background, environmental portrait",
}

// Build produces the generation prompt for one model/pose/scene pick. An
// unknown scene id falls back to the studio description.
func Build(model catalog.Model, pose catalog.Pose, sceneID string) string {
	clauses := []string{
		fmt.Sprintf("Professional fashion photography of a %s year old %s model", model.AgeRange, model.Gender),
		fmt.Sprintf("%s body type, %s skin tone", model.BodyType, model.SkinTone),
		fmt.Sprintf("model in %s pose", strings.ToLower(pose.Name)),
		"wearing fashionable clothing, product showcase",
		"clothing fits perfectly, realistic fabric texture",
		sceneDescription(sceneID),
		"professional studio lighting",
		"high resolution, sharp focus",
		"commercial photography style",
		"e-commerce product photography",
		"ultra realistic, photorealistic",
		"detailed textures, natural skin",
		"perfect hands and fingers",
		"no artifacts, high quality",
		"shot on professional camera",
		"proper exposure, vibrant colors",
		"clean background, product focus",
	}
	return strings.Join(clauses, ", ")
}

// Variation suffixes the base prompt with a per-slot marker so the N
// images of one batch come out distinct.
func Variation(base string, slot int) string {
	return fmt.Sprintf("%s, variation %d", base, slot+1)
}

func sceneDescription(sceneID string) string {
	if desc, ok := sceneDescriptions[sceneID]; ok {
		return desc
	}
	return sceneDescriptions["studio"]
}
