// Package catalog loads the static reference data the engine consumes:
// the exercise register with muscle mappings, per-muscle base cooldown
// hours, percentile norms tables, and quest/dungeon templates. The
// defaults ship embedded; a deployment can override any file on disk.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/claude/repforge/internal/engine"
	"github.com/claude/repforge/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/exercises.yaml
var exercisesYAML []byte

//go:embed data/norms.yaml
var normsYAML []byte

//go:embed data/quests.yaml
var questsYAML []byte

//go:embed data/dungeons.yaml
var dungeonsYAML []byte

// Exercise is one canonical exercise register entry.
type Exercise struct {
	ID         string               `yaml:"id" json:"id"`
	Name       string               `yaml:"name" json:"name"`
	IsBigThree bool                 `yaml:"is_big_three,omitempty" json:"is_big_three,omitempty"`
	Muscles    engine.MuscleMapping `yaml:"muscles" json:"muscles"`
}

// MuscleGroup carries a muscle group's base recovery window.
type MuscleGroup struct {
	ID        string  `yaml:"id"`
	BaseHours float64 `yaml:"base_hours"`
}

type exercisesFile struct {
	Exercises    []Exercise    `yaml:"exercises"`
	MuscleGroups []MuscleGroup `yaml:"muscle_groups"`
}

type normsFile struct {
	Tables []engine.NormTable `yaml:"tables"`
}

type questsFile struct {
	Templates []models.QuestTemplate `yaml:"templates"`
}

type dungeonsFile struct {
	Templates []models.DungeonTemplate `yaml:"templates"`
}

// Catalog is the loaded, indexed reference data. It is immutable after
// Load and safe for concurrent reads.
type Catalog struct {
	exercises    map[string]Exercise
	muscleHours  map[string]float64
	maxBaseHours float64
	norms        map[normKey]*engine.NormTable
	quests       []models.QuestTemplate
	dungeons     []models.DungeonTemplate
}

type normKey struct {
	exercise string
	sex      models.Sex
}

// Load builds a catalog from the embedded defaults, overridden by any
// file present in dir (when dir is non-empty).
func Load(dir string) (*Catalog, error) {
	var exFile exercisesFile
	if err := loadYAML(dir, "exercises.yaml", exercisesYAML, &exFile); err != nil {
		return nil, err
	}
	var nFile normsFile
	if err := loadYAML(dir, "norms.yaml", normsYAML, &nFile); err != nil {
		return nil, err
	}
	var qFile questsFile
	if err := loadYAML(dir, "quests.yaml", questsYAML, &qFile); err != nil {
		return nil, err
	}
	var dFile dungeonsFile
	if err := loadYAML(dir, "dungeons.yaml", dungeonsYAML, &dFile); err != nil {
		return nil, err
	}

	c := &Catalog{
		exercises:   make(map[string]Exercise, len(exFile.Exercises)),
		muscleHours: make(map[string]float64, len(exFile.MuscleGroups)),
		norms:       make(map[normKey]*engine.NormTable, len(nFile.Tables)),
		quests:      qFile.Templates,
		dungeons:    dFile.Templates,
	}
	for _, ex := range exFile.Exercises {
		c.exercises[ex.ID] = ex
	}
	for _, mg := range exFile.MuscleGroups {
		c.muscleHours[mg.ID] = mg.BaseHours
		if mg.BaseHours > c.maxBaseHours {
			c.maxBaseHours = mg.BaseHours
		}
	}
	for i := range nFile.Tables {
		t := &nFile.Tables[i]
		if err := validateNormTable(t); err != nil {
			return nil, err
		}
		c.norms[normKey{t.ExerciseID, t.Sex}] = t
	}
	return c, nil
}

func loadYAML(dir, name string, embedded []byte, out any) error {
	data := embedded
	if dir != "" {
		if b, err := os.ReadFile(dir + "/" + name); err == nil {
			data = b
		}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing catalog %s: %w", name, err)
	}
	return nil
}

func validateNormTable(t *engine.NormTable) error {
	for i := 1; i < len(t.Points); i++ {
		if t.Points[i].Multiplier <= t.Points[i-1].Multiplier ||
			t.Points[i].Percentile <= t.Points[i-1].Percentile {
			return fmt.Errorf("norms table %s/%s: points must be strictly increasing", t.ExerciseID, t.Sex)
		}
	}
	return nil
}

// IsBigThree reports whether the exercise carries the big-three set
// bonus.
func (c *Catalog) IsBigThree(exerciseID string) bool {
	return c.exercises[exerciseID].IsBigThree
}

// Exercise looks up a register entry.
func (c *Catalog) Exercise(id string) (Exercise, bool) {
	ex, ok := c.exercises[id]
	return ex, ok
}

// Exercises returns the full register sorted by ID.
func (c *Catalog) Exercises() []Exercise {
	out := make([]Exercise, 0, len(c.exercises))
	for _, ex := range c.exercises {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MuscleFor returns the muscle mapping for an exercise, nil when the
// exercise is unknown.
func (c *Catalog) MuscleFor(exerciseID string) *engine.MuscleMapping {
	ex, ok := c.exercises[exerciseID]
	if !ok {
		return nil
	}
	return &ex.Muscles
}

// BaseHours returns a muscle group's base cooldown window.
func (c *Catalog) BaseHours(muscleGroup string) float64 {
	return c.muscleHours[muscleGroup]
}

// LookbackHours sizes the recovery scan window to the slowest base
// cooldown in the catalog.
func (c *Catalog) LookbackHours() float64 { return c.maxBaseHours }

// Norms returns the percentile table for an exercise/sex pair, nil when
// absent.
func (c *Catalog) Norms(exerciseID string, sex models.Sex) *engine.NormTable {
	return c.norms[normKey{exerciseID, sex}]
}

// QuestTemplates returns the daily quest catalog.
func (c *Catalog) QuestTemplates() []models.QuestTemplate { return c.quests }

// DungeonTemplates returns the dungeon catalog.
func (c *Catalog) DungeonTemplates() []models.DungeonTemplate { return c.dungeons }
