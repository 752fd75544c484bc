package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bikeshare-flow/models"
	"bikeshare-flow/utils"
)

const sampleCSV = "\ufeffRENT_NM,RENT_LAT,RENT_LON,RTN_NM,RTN_LAT,RTN_LON,RENT_DT,BIRTH_YEAR,SEX_CD,USE_MIN\n" +
	"Seongsu,37.55,127.04,Ttukseom,37.56,127.05,2024-05-15 13:45,1994,M,12\n" +
	"Ttukseom,37.56,127.05,Seongsu,37.55,127.04,2024-05-15 18:02,,F,9\n" +
	"Broken,37.55\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeCSV(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}

	first := rows[0]
	if first.RentName != "Seongsu" || first.RentLat != "37.55" || first.ReturnLon != "127.05" {
		t.Errorf("first row: got %+v", *first)
	}
	if first.RentTime != "2024-05-15 13:45" || first.BirthYear != "1994" || first.SexCode != "M" {
		t.Errorf("first row: got %+v", *first)
	}
	if rows[1].BirthYear != "" {
		t.Errorf("empty birth year: got %q", rows[1].BirthYear)
	}
	if rows[2].RentLat != "37.55" || rows[2].RentLon != "" || rows[2].RentTime != "" {
		t.Errorf("short row should yield empty fields: got %+v", *rows[2])
	}
}

func TestDecodeCSVMissingColumn(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("RENT_LAT,RENT_LON\n1,2\n"))
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Errorf("got %v; want missing column error", err)
	}
}

func TestCSVReaderMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	header := strings.Join(models.Columns, ",") + "\n"
	a := writeFile(t, dir, "a.csv", header+"37.1,127.1,A,37.2,127.2,B,2024-05-01 10:00,1990,M\n")
	b := writeFile(t, dir, "b.csv", header+
		"37.3,127.3,C,37.4,127.4,D,2024-05-02 10:00,1991,F\n"+
		"37.5,127.5,E,37.6,127.6,F,2024-05-03 10:00,1992,M\n")

	// the same file again, spelled differently
	aAgain := dir + string(filepath.Separator) + "." + string(filepath.Separator) + "a.csv"
	r := NewCSVReader([]string{a, b, a, aAgain}, 2, utils.NewDiscardLogger())
	rows, err := r.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3 (duplicate path read once)", len(rows))
	}
	for i, want := range []string{"A", "C", "E"} {
		if rows[i].RentName != want {
			t.Errorf("row %d: got %q, want %q", i, rows[i].RentName, want)
		}
	}
}

func TestCSVReaderFailsOnMissingFile(t *testing.T) {
	r := NewCSVReader([]string{filepath.Join(t.TempDir(), "nope.csv")}, 1, utils.NewDiscardLogger())
	if _, err := r.FetchAll(context.Background()); err == nil {
		t.Error("expected error for a missing file")
	}

	empty := NewCSVReader(nil, 1, utils.NewDiscardLogger())
	if _, err := empty.FetchAll(context.Background()); err == nil {
		t.Error("expected error when no files are configured")
	}
}

func TestCSVWriterOutputIsReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rejects.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	rejected := []*models.RawTrip{
		{RentLat: "", RentLon: "127", RentName: "No lat, really", RentTime: "2024-05-01 10:00"},
		nil,
	}
	if err := w.WriteRaw(context.Background(), rejected); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("ReadCSVFile: %v", err)
	}
	if len(rows) != 1 || rows[0].RentName != "No lat, really" {
		t.Errorf("rows: got %+v", rows)
	}
}
