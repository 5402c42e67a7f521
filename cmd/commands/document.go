package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"voyage/models"
)

// readMap decodes a YAML or JSON file into a generic map. JSON is picked by
// extension; everything else goes through the YAML decoder.
func readMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return raw, nil
}

// LoadDocument reads a proposal file. Missing keys get the usual defaults.
func LoadDocument(path string) (*models.VoyageDocument, error) {
	raw, err := readMap(path)
	if err != nil {
		return nil, err
	}
	return models.FromMap(raw)
}

// LoadOverlay reads a design overlay file on top of the default overlay.
func LoadOverlay(path string) (*models.DesignOverlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	o := models.DefaultOverlay()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &o)
	} else {
		err = yaml.Unmarshal(data, &o)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &o, nil
}
