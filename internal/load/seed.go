package load

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Loads []seedLoad `yaml:"loads"`
}

type seedLoad struct {
	LoadID        string   `yaml:"load_id"`
	LoadBooked    string   `yaml:"load_booked"`
	Origin        string   `yaml:"origin"`
	Destination   string   `yaml:"destination"`
	EquipmentType string   `yaml:"equipment_type"`
	LoadboardRate *float64 `yaml:"loadboard_rate"`
	Notes         string   `yaml:"notes"`
	Weight        *int     `yaml:"weight"`
	CommodityType string   `yaml:"commodity_type"`
	NumOfPieces   *int     `yaml:"num_of_pieces"`
	Miles         *int     `yaml:"miles"`
	Dimensions    string   `yaml:"dimensions"`
}

// Seed reads a YAML file of loads and upserts each record. Used at startup to
// populate the memory driver and to bootstrap fresh MySQL databases.
func Seed(ctx context.Context, repo Repository, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	count := 0
	for _, seed := range file.Loads {
		record := &Load{
			LoadID:        seed.LoadID,
			LoadBooked:    seed.LoadBooked,
			Origin:        seed.Origin,
			Destination:   seed.Destination,
			EquipmentType: seed.EquipmentType,
			LoadboardRate: seed.LoadboardRate,
			Notes:         seed.Notes,
			Weight:        seed.Weight,
			CommodityType: seed.CommodityType,
			NumOfPieces:   seed.NumOfPieces,
			Miles:         seed.Miles,
			Dimensions:    seed.Dimensions,
		}
		if err := record.Validate(); err != nil {
			return count, fmt.Errorf("seed record %q: %w", seed.LoadID, err)
		}
		if err := repo.Put(ctx, record); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
