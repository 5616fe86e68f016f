package tts

import (
	"encoding/json"
	"os"
	"sort"
)

// Catalog maps language -> region -> gender -> voice names.
type Catalog map[string]map[string]map[string][]string

// Voice is one selectable narration voice.
type Voice struct {
	Name   string `json:"name"`
	Lang   string `json:"lang"`
	Region string `json:"region"`
	Gender string `json:"gender"`
}

// Voices is the built-in catalog of Edge neural voices the pipeline has been
// used with.
var Voices = Catalog{
	"Bengali": {
		"Bangladesh": {
			"Male":   {"bn-BD-PradeepNeural"},
			"Female": {"bn-BD-NabanitaNeural"},
		},
		"India": {
			"Male": {"bn-IN-BashkarNeural"},
			"Female": {"bn-IN-TanishaaNeural"},
		},
	},
	"English": {
		"India": {
			"Male":   {"en-IN-PrabhatNeural"},
			"Female": {"en-IN-NeerjaNeural"},
		},
		"United Kingdom": {
			"Male":   {"en-GB-RyanNeural", "en-GB-ThomasNeural"},
			"Female": {"en-GB-LibbyNeural", "en-GB-SoniaNeural"},
		},
		"United States": {
			"Male":   {"en-US-GuyNeural", "en-US-ChristopherNeural", "en-US-EricNeural", "en-US-RogerNeural"},
			"Female": {"en-US-AriaNeural", "en-US-JennyNeural", "en-US-MichelleNeural", "en-US-AnaNeural"},
		},
	},
	"Hindi": {
		"India": {
			"Male":   {"hi-IN-MadhurNeural"},
			"Female": {"hi-IN-SwaraNeural"},
		},
	},
	"Spanish": {
		"Spain": {
			"Male":   {"es-ES-AlvaroNeural"},
			"Female": {"es-ES-ElviraNeural"},
		},
	},
}

// LoadCatalog reads a voices.json override. When the file is missing or
// unreadable the built-in catalog is returned.
func LoadCatalog(path string) Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		return Voices
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil || len(catalog) == 0 {
		return Voices
	}
	return catalog
}

// Flatten expands the nested catalog into a list sorted by language, region,
// gender and name.
func (c Catalog) Flatten() []Voice {
	var flat []Voice
	for lang, regions := range c {
		for region, genders := range regions {
			for gender, names := range genders {
				for _, name := range names {
					flat = append(flat, Voice{Name: name, Lang: lang, Region: region, Gender: gender})
				}
			}
		}
	}
	sort.Slice(flat, func(i, j int) bool {
		a, b := flat[i], flat[j]
		if a.Lang != b.Lang {
			return a.Lang < b.Lang
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Gender != b.Gender {
			return a.Gender < b.Gender
		}
		return a.Name < b.Name
	})
	return flat
}
