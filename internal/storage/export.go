package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/halotools/internal/halo"
)

type ExportData struct {
	Halos []halo.Params `json:"halos"`
	Count int           `json:"count"`
}

// ExportJSON writes the halo parameter records as indented JSON.
func ExportJSON(w io.Writer, records []halo.Params) error {
	data := ExportData{
		Halos: records,
		Count: len(records),
	}
	if data.Halos == nil {
		data.Halos = []halo.Params{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile writes the records to path, replacing any existing file.
func ExportJSONFile(path string, records []halo.Params) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, records); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
