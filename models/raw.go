package models

// RawTrip holds one trip row exactly as it appears in the source dataset.
// Field names follow the public bike-share export (RENT_LAT, RTN_NM, ...).
// It is converted into a TripRecord by the cleaner.
type RawTrip struct {
	RentLat    string
	RentLon    string
	RentName   string
	ReturnLat  string
	ReturnLon  string
	ReturnName string
	RentTime   string
	BirthYear  string
	SexCode    string
}

// Columns is the dataset header, in file order.
var Columns = []string{
	"RENT_LAT", "RENT_LON", "RENT_NM",
	"RTN_LAT", "RTN_LON", "RTN_NM",
	"RENT_DT", "BIRTH_YEAR", "SEX_CD",
}

// Row returns the fields in Columns order.
func (r *RawTrip) Row() []string {
	return []string{
		r.RentLat, r.RentLon, r.RentName,
		r.ReturnLat, r.ReturnLon, r.ReturnName,
		r.RentTime, r.BirthYear, r.SexCode,
	}
}
