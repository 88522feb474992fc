package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"mspro-labs/plage-watch/internal/models"
)

type jsonRecord struct {
	ID             string `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	Municipality   string `json:"municipality"`
	WaterBody      string `json:"waterBody"`
	RegionID       string `json:"regionId"`
	RegionName     string `json:"regionName"`
	Rating         string `json:"rating"`
	LastSampleDate string `json:"lastSampleDate"`
	Link           string `json:"link"`
	Image          string `json:"image"`
}

// WriteJSON writes recs as an indented array, keeping non-ASCII text and
// URL characters unescaped.
func WriteJSON(w io.Writer, recs []models.BeachRecord) error {
	out := make([]jsonRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, jsonRecord{
			ID:             r.ID,
			Key:            r.Key,
			Name:           r.Name,
			Municipality:   r.Municipality,
			WaterBody:      r.WaterBody,
			RegionID:       r.RegionID,
			RegionName:     r.RegionName,
			Rating:         r.Rating,
			LastSampleDate: r.LastSampleDate,
			Link:           r.Link,
			Image:          r.Image,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return eris.Wrapf(models.ErrExport, "json: encode: %v", err)
	}
	return nil
}

// SaveJSON replaces the file at path. The data is written to a temporary file
// first so a failed export leaves the previous file intact.
func SaveJSON(path string, recs []models.BeachRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(models.ErrExport, "json: create %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".plages-*.json")
	if err != nil {
		return eris.Wrapf(models.ErrExport, "json: create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, recs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(models.ErrExport, "json: close: %v", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(models.ErrExport, "json: rename to %s: %v", path, err)
	}
	return nil
}
