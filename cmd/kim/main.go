package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TrildaDevCenter-kmm-kmp/kim"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/format"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/output"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
)

var (
	inputFilename  string
	outputFilename string
	actionArg      string

	orientationArg int
	takenDateArg   string
	latitudeArg    float64
	longitudeArg   float64
	clearGpsArg    bool
	ratingArg      int
	keywordsArg    string
	personsArg     string
)

func main() {
	output.Setup()
	flag.StringVar(&inputFilename, "f", "", "Input filename")
	flag.StringVar(&outputFilename, "o", "", "Output filename for update (defaults to input)")
	flag.StringVar(&actionArg, "a", "show", "Action to perform: show, update")
	flag.IntVar(&orientationArg, "orientation", 0, "Set orientation (1-8)")
	flag.StringVar(&takenDateArg, "taken-date", "", "Set taken date (RFC 3339 with zone offset, e.g. 2023-07-12T14:48:45+02:00) or 'clear'")
	flag.Float64Var(&latitudeArg, "lat", 0, "Set GPS latitude (decimal degrees, with -lon)")
	flag.Float64Var(&longitudeArg, "lon", 0, "Set GPS longitude (decimal degrees, with -lat)")
	flag.BoolVar(&clearGpsArg, "clear-gps", false, "Remove the GPS position")
	flag.IntVar(&ratingArg, "rating", -99, "Set rating (-1 rejected, 0-5 stars)")
	flag.StringVar(&keywordsArg, "keywords", "", "Set keywords (comma separated)")
	flag.StringVar(&personsArg, "persons", "", "Set persons in image (comma separated)")
	flag.Parse()

	if inputFilename == "" {
		fmt.Println("Invalid input filename")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var err error
	switch actionArg {
	case "show":
		err = show(inputFilename)
	case "update":
		err = applyUpdates(inputFilename)
	default:
		fmt.Printf("Invalid action: %s\n", actionArg)
		flag.PrintDefaults()
		os.Exit(1)
	}
	if err != nil {
		fmt.Println("Error handling file:", err)
		os.Exit(1)
	}
}

func show(fileName string) error {
	fmt.Printf("Opening file \033[7m%s\033[27m\n", fileName)
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	m, err := kim.ReadMetadata(data)
	if err != nil {
		return err
	}
	output.Printf(false, "File type is %s\n\n", m.FormatName)
	printSummary(m)
	printExif(m)
	printXmp(m)
	printIptc(m)
	return nil
}

func printSummary(m *format.Metadata) {
	output.PrintHeader(false, "Summary")
	output.PrintForm(false, "Orientation", fmt.Sprintf("%d", m.Orientation()), 14)
	if taken, ok := m.TakenDate(time.Local); ok {
		output.PrintForm(false, "Taken", taken.Format("2006-01-02T15:04:05.000"), 14)
	}
	if lat, lon, ok := m.GpsCoordinates(); ok {
		output.PrintForm(false, "GPS", fmt.Sprintf("%.6f %.6f", lat, lon), 14)
	}
	if width, height, ok := m.Dimensions(); ok {
		output.PrintForm(false, "Dimensions", fmt.Sprintf("%d x %d", width, height), 14)
	}
	if rating, ok := m.Rating(); ok {
		output.PrintForm(false, "Rating", fmt.Sprintf("%d", rating), 14)
	}
	if keywords := m.Keywords(); len(keywords) > 0 {
		output.PrintForm(false, "Keywords", strings.Join(keywords, ", "), 14)
	}
	if persons := m.PersonsInImage(); len(persons) > 0 {
		output.PrintForm(false, "Persons", strings.Join(persons, ", "), 14)
	}
	output.Println(false)
}

func printExif(m *format.Metadata) {
	if m.Exif == nil {
		return
	}
	for _, dir := range m.Exif.Directories {
		output.PrintHeader(false, "EXIF %s", tiff.DirName(dir.Type))
		for _, field := range dir.Fields {
			output.PrintForm(true, tiff.TagName(dir.Type, field.Tag), field.String(), 24)
		}
		if dir.Thumbnail != nil {
			output.PrintForm(true, "Thumbnail", fmt.Sprintf("%d bytes", len(dir.Thumbnail)), 24)
		}
		output.Println(false)
	}
}

func printXmp(m *format.Metadata) {
	if m.Xmp == "" {
		return
	}
	output.PrintHeader(false, "XMP")
	output.Println(true, m.Xmp)
	output.Println(false)
}

func printIptc(m *format.Metadata) {
	if len(m.Iptc) == 0 {
		return
	}
	output.PrintHeader(false, "IPTC")
	for _, record := range m.Iptc {
		output.PrintForm(true, fmt.Sprintf("%d:%02d", record.Record, record.DataSet), string(record.Data), 8)
	}
	output.Println(false)
}

func applyUpdates(fileName string) error {
	updates, err := collectUpdates()
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return fmt.Errorf("no update flags given")
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	for _, u := range updates {
		data, err = kim.ApplyUpdate(data, u)
		if err != nil {
			return err
		}
	}
	target := outputFilename
	if target == "" {
		target = fileName
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return err
	}
	output.Printf(false, "Wrote %s\n", target)
	return nil
}

func collectUpdates() ([]meta.Update, error) {
	var updates []meta.Update
	if orientationArg != 0 {
		o := meta.Orientation(orientationArg)
		if !o.Valid() {
			return nil, fmt.Errorf("invalid orientation: %d", orientationArg)
		}
		updates = append(updates, meta.OrientationUpdate{Orientation: o})
	}
	if takenDateArg == "clear" {
		updates = append(updates, meta.TakenDateUpdate{Clear: true})
	} else if takenDateArg != "" {
		t, err := time.ParseInLocation(time.RFC3339, takenDateArg, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid taken date: %w", err)
		}
		updates = append(updates, meta.TakenDateUpdate{Millis: t.UnixMilli()})
	}
	if clearGpsArg {
		updates = append(updates, meta.GpsUpdate{Clear: true})
	} else if latitudeArg != 0 || longitudeArg != 0 {
		updates = append(updates, meta.GpsUpdate{Latitude: latitudeArg, Longitude: longitudeArg})
	}
	if ratingArg != -99 {
		if ratingArg < -1 || ratingArg > 5 {
			return nil, fmt.Errorf("invalid rating: %d", ratingArg)
		}
		updates = append(updates, meta.RatingUpdate{Rating: ratingArg})
	}
	if keywordsArg != "" {
		updates = append(updates, meta.KeywordsUpdate{Keywords: splitList(keywordsArg)})
	}
	if personsArg != "" {
		updates = append(updates, meta.PersonsUpdate{Persons: splitList(personsArg)})
	}
	return updates, nil
}

func splitList(arg string) []string {
	var out []string
	for _, item := range strings.Split(arg, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
