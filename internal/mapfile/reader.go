package mapfile

import (
	"fmt"
	"io"
	"os"

	"github.com/tilestack/maprender/internal/binreader"
)

// magic is the literal ASCII prefix every map file must start with
// (spec.md §4.2 step 1).
const magic = "MAPRENDER1"

// supportedVersions lists the file versions this reader recognizes
// (spec.md §4.2 step 3).
var supportedVersions = map[int32]bool{
	3: true,
	4: true,
	5: true,
}

// headerReadCap bounds how much of the file Open reads up front. The
// prelude this package parses is always a small fraction of a real map
// file (whose bulk is geometry data out of scope per spec.md §1), so a
// generous fixed cap avoids reading gigabytes just to get the header.
const headerReadCap = 1 << 20 // 1 MiB

// debugSignatureSize is the length of the debug signature preceding a
// sub-file's index when the debug optional flag is set (spec.md §4.2
// step 12).
const debugSignatureSize = 16

// Open validates and parses the prelude of the map file at path, returning
// its MapFileInfo and per-zoom-level sub-file index (spec.md §4.2). It does
// not read sub-file geometry bodies, which are out of scope (spec.md §1).
func Open(path string) (*MapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapfile: opening %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mapfile: stat %s: %w", path, err)
	}
	actualSize := stat.Size()

	n := int64(headerReadCap)
	if actualSize < n {
		n = actualSize
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f, buf); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("mapfile: reading header of %s: %w", path, err)
	}

	mf, err := parseHeader(buf, actualSize)
	if err != nil {
		return nil, fmt.Errorf("mapfile: %s: %w", path, err)
	}
	return mf, nil
}

// parseHeader runs the 13-step prelude sequence from spec.md §4.2 over an
// in-memory buffer. actualSize is the real on-disk file size, checked
// against the declared file size field.
func parseHeader(data []byte, actualSize int64) (*MapFile, error) {
	b := binreader.New(data)

	// Step 1: magic bytes.
	magicBytes, err := b.ReadBytes(len(magic))
	if err != nil {
		return nil, fmt.Errorf("reading magic bytes: %w", ErrNotAMapFile)
	}
	if string(magicBytes) != magic {
		return nil, fmt.Errorf("unexpected magic bytes %q: %w", magicBytes, ErrNotAMapFile)
	}

	// Step 2: remaining-header length.
	headerLen, err := b.ReadInt()
	if err != nil {
		return nil, err
	}
	if headerLen <= 0 {
		return nil, fmt.Errorf("remaining header length %d must be positive: %w", headerLen, ErrMalformedInput)
	}
	if int64(b.Position())+int64(headerLen) > actualSize {
		return nil, fmt.Errorf("remaining header length %d does not fit in file of size %d: %w", headerLen, actualSize, ErrMalformedInput)
	}

	// Step 3: file version.
	version, err := b.ReadInt()
	if err != nil {
		return nil, err
	}
	if !supportedVersions[version] {
		return nil, fmt.Errorf("file version %d: %w", version, ErrUnsupportedVersion)
	}

	// Step 4: file size.
	fileSize, err := b.ReadLong()
	if err != nil {
		return nil, err
	}
	if fileSize != actualSize {
		return nil, fmt.Errorf("declared file size %d does not match actual size %d: %w", fileSize, actualSize, ErrMalformedInput)
	}

	// Step 5: map date.
	mapDate, err := b.ReadLong()
	if err != nil {
		return nil, err
	}

	// Step 6: bounding box.
	bbox, err := readBoundingBox(b)
	if err != nil {
		return nil, err
	}

	// Step 7: tile pixel size.
	tilePixelSize, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	if tilePixelSize == 0 {
		return nil, fmt.Errorf("tile pixel size must be positive: %w", ErrMalformedInput)
	}

	// Step 8: projection name.
	projection, err := b.ReadUTF8String()
	if err != nil {
		return nil, err
	}

	info := MapFileInfo{
		FileVersion:    version,
		FileSize:       fileSize,
		MapDate:        mapDate,
		BoundingBox:    bbox,
		TilePixelSize:  tilePixelSize,
		ProjectionName: projection,
	}

	// Step 9: optional fields flag byte, then the conditional fields in the
	// fixed order debug/start-pos/start-zoom/lang/comment/created-by. The
	// debug bit itself carries no payload here: it only changes how later
	// sub-file index addresses are computed (step 12).
	flags, err := b.ReadByte()
	if err != nil {
		return nil, err
	}
	info.Flags = flags

	if flags&flagStartPosition != 0 {
		lat, lon, err := readStartPosition(b)
		if err != nil {
			return nil, err
		}
		info.HasStartPosition = true
		info.StartPosition = StartPosition{Lat: lat, Lon: lon}
	}
	if flags&flagStartZoomLevel != 0 {
		zoom, err := b.ReadByte()
		if err != nil {
			return nil, err
		}
		if zoom > 22 {
			return nil, fmt.Errorf("start zoom level %d out of range [0,22]: %w", zoom, ErrMalformedInput)
		}
		info.HasStartZoomLevel = true
		info.StartZoomLevel = zoom
	}
	if flags&flagLanguagePreference != 0 {
		lang, err := b.ReadUTF8String()
		if err != nil {
			return nil, err
		}
		if len([]rune(lang)) != 2 {
			return nil, fmt.Errorf("language preference %q must be exactly 2 characters: %w", lang, ErrMalformedInput)
		}
		info.HasLanguage = true
		info.LanguagePreference = lang
	}
	if flags&flagComment != 0 {
		comment, err := b.ReadUTF8String()
		if err != nil {
			return nil, err
		}
		info.HasComment = true
		info.Comment = comment
	}
	if flags&flagCreatedBy != 0 {
		createdBy, err := b.ReadUTF8String()
		if err != nil {
			return nil, err
		}
		info.HasCreatedBy = true
		info.CreatedBy = createdBy
	}

	// Step 10: POI and way tag tables.
	poiTags, err := readTagTable(b)
	if err != nil {
		return nil, fmt.Errorf("reading POI tag table: %w", err)
	}
	info.PoiTags = poiTags

	wayTags, err := readTagTable(b)
	if err != nil {
		return nil, fmt.Errorf("reading way tag table: %w", err)
	}
	info.WayTags = wayTags

	// Step 11: sub-file count.
	subFileCount, err := b.ReadByte()
	if err != nil {
		return nil, err
	}
	if subFileCount < 1 {
		return nil, fmt.Errorf("sub-file count must be >= 1: %w", ErrMalformedInput)
	}
	info.NumberOfSubFiles = subFileCount

	// Step 12: sub-file records.
	subFiles := make([]SubFileParameter, 0, subFileCount)
	for i := 0; i < int(subFileCount); i++ {
		sf, err := readSubFile(b, info.IsDebugFile(), actualSize)
		if err != nil {
			return nil, fmt.Errorf("sub-file %d: %w", i, err)
		}
		subFiles = append(subFiles, sf)
	}

	return buildMapFile(info, subFiles)
}

func readBoundingBox(b *binreader.Buffer) (BoundingBox, error) {
	minLat, err := b.ReadInt()
	if err != nil {
		return BoundingBox{}, err
	}
	minLon, err := b.ReadInt()
	if err != nil {
		return BoundingBox{}, err
	}
	maxLat, err := b.ReadInt()
	if err != nil {
		return BoundingBox{}, err
	}
	maxLon, err := b.ReadInt()
	if err != nil {
		return BoundingBox{}, err
	}
	bbox := BoundingBox{
		MinLat: float64(minLat) / 1e6,
		MinLon: float64(minLon) / 1e6,
		MaxLat: float64(maxLat) / 1e6,
		MaxLon: float64(maxLon) / 1e6,
	}
	if !bbox.valid() {
		return BoundingBox{}, fmt.Errorf("invalid bounding box %+v: %w", bbox, ErrMalformedInput)
	}
	return bbox, nil
}

func readStartPosition(b *binreader.Buffer) (lat, lon float64, err error) {
	latRaw, err := b.ReadInt()
	if err != nil {
		return 0, 0, err
	}
	lonRaw, err := b.ReadInt()
	if err != nil {
		return 0, 0, err
	}
	return float64(latRaw) / 1e6, float64(lonRaw) / 1e6, nil
}

func readTagTable(b *binreader.Buffer) ([]string, error) {
	count, err := b.ReadShort()
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		tag, err := b.ReadUTF8String()
		if err != nil {
			return nil, fmt.Errorf("tag %d: %w", i, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func readSubFile(b *binreader.Buffer, isDebug bool, actualSize int64) (SubFileParameter, error) {
	baseZoom, err := b.ReadByte()
	if err != nil {
		return SubFileParameter{}, err
	}
	if baseZoom > 20 {
		return SubFileParameter{}, fmt.Errorf("base zoom level %d out of range [0,20]: %w", baseZoom, ErrMalformedInput)
	}
	zoomMin, err := b.ReadByte()
	if err != nil {
		return SubFileParameter{}, err
	}
	zoomMax, err := b.ReadByte()
	if err != nil {
		return SubFileParameter{}, err
	}
	if zoomMin > zoomMax || zoomMax > 22 {
		return SubFileParameter{}, fmt.Errorf("zoom range [%d,%d] invalid: %w", zoomMin, zoomMax, ErrMalformedInput)
	}
	startAddress, err := b.ReadLong()
	if err != nil {
		return SubFileParameter{}, err
	}
	if startAddress < 70 || startAddress >= actualSize {
		return SubFileParameter{}, fmt.Errorf("start address %d out of range [70,%d): %w", startAddress, actualSize, ErrMalformedInput)
	}
	subFileSize, err := b.ReadLong()
	if err != nil {
		return SubFileParameter{}, err
	}
	if subFileSize < 1 {
		return SubFileParameter{}, fmt.Errorf("sub-file size must be >= 1: %w", ErrMalformedInput)
	}

	indexStart := startAddress
	if isDebug {
		indexStart += debugSignatureSize
	}

	return SubFileParameter{
		BaseZoomLevel:     baseZoom,
		ZoomLevelMin:      zoomMin,
		ZoomLevelMax:      zoomMax,
		StartAddress:      startAddress,
		IndexStartAddress: indexStart,
		SubFileSize:       subFileSize,
	}, nil
}

// buildMapFile computes the global zoom range and the per-zoom-level
// lookup table (spec.md §4.2 step 13).
func buildMapFile(info MapFileInfo, subFiles []SubFileParameter) (*MapFile, error) {
	// The wire format (spec.md §6) carries one bounding box for the whole
	// file, not per sub-file, so every sub-file inherits it.
	for i := range subFiles {
		subFiles[i].BoundingBox = info.BoundingBox
	}

	globalMin := subFiles[0].ZoomLevelMin
	globalMax := subFiles[0].ZoomLevelMax
	for _, sf := range subFiles[1:] {
		if sf.ZoomLevelMin < globalMin {
			globalMin = sf.ZoomLevelMin
		}
		if sf.ZoomLevelMax > globalMax {
			globalMax = sf.ZoomLevelMax
		}
	}

	lookup := make([]*SubFileParameter, globalMax+1)
	for i := range subFiles {
		sf := &subFiles[i]
		for z := sf.ZoomLevelMin; z <= sf.ZoomLevelMax; z++ {
			lookup[z] = sf
		}
	}
	for z := globalMin; z <= globalMax; z++ {
		if lookup[z] == nil {
			return nil, fmt.Errorf("no sub-file covers zoom level %d: %w", z, ErrMalformedInput)
		}
	}

	return &MapFile{
		Info:       info,
		SubFiles:   subFiles,
		zoomLookup: lookup,
		globalMin:  globalMin,
		globalMax:  globalMax,
	}, nil
}
