package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samirrijal/poimap/internal/core/domain"
)

type gpxFile struct {
	Waypoints []gpxWaypoint `xml:"wpt"`
}

type gpxWaypoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name"`
	Desc string  `xml:"desc"`
	Cmt  string  `xml:"cmt"`
	Type string  `xml:"type"`
}

// parseGPX turns every waypoint into a point of interest in category.
// The waypoint name doubles as details when there is no description.
func parseGPX(r io.Reader, category string) ([]domain.PointOfInterest, error) {
	var doc gpxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gpx: %w", err)
	}

	pois := make([]domain.PointOfInterest, 0, len(doc.Waypoints))
	for _, w := range doc.Waypoints {
		name := strings.TrimSpace(w.Name)
		details := strings.TrimSpace(w.Desc)
		if details == "" {
			details = strings.TrimSpace(w.Cmt)
		}
		if details == "" {
			details = name
		}

		poi := domain.PointOfInterest{
			Name:     name,
			Category: category,
			Details:  details,
			Location: domain.NewLocation(w.Lat, w.Lon),
		}
		if t := strings.TrimSpace(w.Type); t != "" {
			poi.Tags = []string{t}
		}
		pois = append(pois, poi)
	}
	return pois, nil
}

func parseGPXFile(path string) ([]domain.PointOfInterest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pois, err := parseGPX(f, categoryFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pois, nil
}

// categoryFor names the category after the folder holding the file.
func categoryFor(path string) string {
	return domain.CleanCategory(filepath.Base(filepath.Dir(path)))
}

// findGPXFiles walks root and returns every .gpx file, sorted.
func findGPXFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".gpx") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
