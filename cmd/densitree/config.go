package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Rule      string `yaml:"rule"`       // cycle or widest
	Depth     int    `yaml:"depth"`      // finest resolution depth
	KInMDE    int    `yaml:"k_in_mde"`   // trajectory prefix judged by MDE
	StorePath string `yaml:"store_path"` // badger directory
	Steps     []int  `yaml:"steps"`      // backtrack checkpoints
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{
		Rule:      "widest",
		Depth:     10,
		KInMDE:    10,
		StorePath: "densitree.db",
		Steps:     []int{1},
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readPoints(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	points := make([][]float64, 0, len(records))
	for i, rec := range records {
		p := make([]float64, len(rec))
		for j, field := range rec {
			p[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
			}
		}
		points = append(points, p)
	}
	return points, nil
}
