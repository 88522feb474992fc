package models

import "github.com/rotisserie/eris"

// Field names a single updatable attribute of a stored BeachRecord.
type Field string

const (
	FieldLink           Field = "link"
	FieldImage          Field = "image"
	FieldMunicipality   Field = "municipality"
	FieldWaterBody      Field = "water_body"
	FieldRegionID       Field = "region_id"
	FieldRegionName     Field = "region_name"
	FieldRating         Field = "rating"
	FieldLastSampleDate Field = "last_sample_date"
)

var knownFields = map[Field]bool{
	FieldLink:           true,
	FieldImage:          true,
	FieldMunicipality:   true,
	FieldWaterBody:      true,
	FieldRegionID:       true,
	FieldRegionName:     true,
	FieldRating:         true,
	FieldLastSampleDate: true,
}

// Validate returns ErrUnknownField for anything outside the known column set.
func (f Field) Validate() error {
	if !knownFields[f] {
		return eris.Wrapf(ErrUnknownField, "field %q", string(f))
	}
	return nil
}

// Value reads the field from a record.
func (r BeachRecord) Value(f Field) string {
	switch f {
	case FieldLink:
		return r.Link
	case FieldImage:
		return r.Image
	case FieldMunicipality:
		return r.Municipality
	case FieldWaterBody:
		return r.WaterBody
	case FieldRegionID:
		return r.RegionID
	case FieldRegionName:
		return r.RegionName
	case FieldRating:
		return r.Rating
	case FieldLastSampleDate:
		return r.LastSampleDate
	}
	return ""
}
