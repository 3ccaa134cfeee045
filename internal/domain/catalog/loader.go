package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// catalogFile is the on-disk layout of the static catalog.
type catalogFile struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
}

// Load reads the catalog from a JSON file. Records are validated at the
// boundary; entries failing validation are quarantined (skipped and
// logged) rather than propagated.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	validate := validator.New()

	categories := make([]Category, 0, len(file.Categories))
	for _, cat := range file.Categories {
		if err := validate.Struct(cat); err != nil {
			logrus.WithFields(logrus.Fields{"category": cat.ID, "error": err}).
				Warn("quarantining invalid catalog category")
			continue
		}
		categories = append(categories, cat)
	}

	products := make([]Product, 0, len(file.Products))
	seen := make(map[string]bool, len(file.Products))
	for _, p := range file.Products {
		if err := validate.Struct(p); err != nil {
			logrus.WithFields(logrus.Fields{"product": p.ID, "error": err}).
				Warn("quarantining invalid catalog product")
			continue
		}
		if seen[p.ID] {
			logrus.WithField("product", p.ID).Warn("quarantining duplicate catalog product id")
			continue
		}
		seen[p.ID] = true
		products = append(products, p)
	}

	logrus.WithFields(logrus.Fields{
		"products":   len(products),
		"categories": len(categories),
	}).Info("catalog loaded")

	return New(products, categories), nil
}
