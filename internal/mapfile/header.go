package mapfile

// BoundingBox is a WGS84 rectangle in degrees.
type BoundingBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// valid reports whether the box is well-formed: min <= max on each axis
// and both axes within the valid WGS84 range (spec.md §4.2 step 6).
func (b BoundingBox) valid() bool {
	return b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon &&
		b.MinLat >= -90 && b.MaxLat <= 90 &&
		b.MinLon >= -180 && b.MaxLon <= 180
}

// StartPosition is an optional default view center, present when the
// start-position optional flag bit is set.
type StartPosition struct {
	Lat, Lon float64
}

// MapFileInfo is the decoded map-file prelude (spec.md §3).
type MapFileInfo struct {
	FileVersion        int32
	FileSize           int64
	MapDate            int64 // milliseconds since Unix epoch
	BoundingBox        BoundingBox
	TilePixelSize      uint16
	ProjectionName     string
	Flags              byte
	Comment            string
	HasComment         bool
	CreatedBy          string
	HasCreatedBy       bool
	LanguagePreference string
	HasLanguage        bool
	StartPosition      StartPosition
	HasStartPosition   bool
	StartZoomLevel     uint8
	HasStartZoomLevel  bool
	PoiTags            []string
	WayTags            []string
	NumberOfSubFiles   uint8
}

// Optional-field flag bits (spec.md §4.2 step 9).
const (
	flagDebug              = 0x80
	flagStartPosition      = 0x40
	flagStartZoomLevel     = 0x20
	flagLanguagePreference = 0x10
	flagComment            = 0x08
	flagCreatedBy          = 0x04
)

// IsDebugFile reports whether the debug signature bit is set, which shifts
// every sub-file's index start address by 16 bytes (spec.md §4.2 step 12).
func (m MapFileInfo) IsDebugFile() bool {
	return m.Flags&flagDebug != 0
}

// SubFileParameter describes one zoom-banded region of the map file
// (spec.md §3).
type SubFileParameter struct {
	BaseZoomLevel     uint8
	ZoomLevelMin      uint8
	ZoomLevelMax      uint8
	StartAddress      int64
	IndexStartAddress int64
	SubFileSize       int64
	BoundingBox       BoundingBox
}

// MapFile is the parsed, immutable result of opening a map file: its header
// info plus a zoom-level lookup table into the sub-file index (spec.md §3
// "Lifecycles" — built once on open, never mutated).
type MapFile struct {
	Info       MapFileInfo
	SubFiles   []SubFileParameter
	zoomLookup []*SubFileParameter // indexed by zoom level, 0..globalMaxZoom
	globalMin  uint8
	globalMax  uint8
}

// QueryZoomLevel returns the sub-file covering the given zoom level, first
// clamping z into [globalMin, globalMax] (spec.md §4.2 "getQueryZoomLevel").
func (m *MapFile) QueryZoomLevel(z int) *SubFileParameter {
	if z < int(m.globalMin) {
		z = int(m.globalMin)
	}
	if z > int(m.globalMax) {
		z = int(m.globalMax)
	}
	return m.zoomLookup[z]
}

// GlobalZoomRange returns the zoom levels covered by the union of all
// sub-files.
func (m *MapFile) GlobalZoomRange() (min, max uint8) {
	return m.globalMin, m.globalMax
}
