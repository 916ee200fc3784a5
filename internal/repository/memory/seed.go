package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// Catalog is the on-disk shape of a development catalog.
type Catalog struct {
	RoomTypes      []model.RoomType      `json:"room_types"`
	SeatedServices []model.SeatedService `json:"seated_services"`
}

// LoadCatalogFile reads a JSON catalog and puts every entry into the store.
func (s *Store) LoadCatalogFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading catalog file: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("decoding catalog file: %w", err)
	}
	s.LoadCatalog(c)
	return nil
}

// LoadCatalog puts every entry of c into the store.
func (s *Store) LoadCatalog(c Catalog) {
	for _, rt := range c.RoomTypes {
		s.PutRoomType(rt)
	}
	for _, svc := range c.SeatedServices {
		s.PutSeatedService(svc)
	}
}
