package campaign

import "time"

// Field is one K2 campaign field as listed in the campaign table.
type Field struct {
	Campaign    string  `json:"campaign"`
	RA          float64 `json:"ra"`
	Dec         float64 `json:"dec"`
	Roll        float64 `json:"roll"` // spacecraft roll, degrees
	Start       string  `json:"start"`
	Stop        string  `json:"stop"`
	Comments    string  `json:"comments"`
	Preliminary bool    `json:"preliminary"`
}

// tableFile is the on-disk layout of the campaign table.
type tableFile struct {
	FieldNumbers []string         `json:"field_numbers"`
	Fields       map[string]Field `json:"fields"`
}

// Pointing is everything the field-of-view engine needs for a campaign.
type Pointing struct {
	Campaign       string    `json:"campaign"`
	RA             float64   `json:"ra"`
	Dec            float64   `json:"dec"`
	SpacecraftRoll float64   `json:"spacecraft_roll"`
	FovRoll        float64   `json:"fov_roll"`
	BrokenChannels []int     `json:"broken_channels"`
	Start          time.Time `json:"start"`
	Stop           time.Time `json:"stop"`
	Preliminary    bool      `json:"preliminary"`
}

// Dataset is a campaign table together with where and when it was loaded.
type Dataset struct {
	Source   string
	LoadedAt time.Time
	Table    *Table
}
