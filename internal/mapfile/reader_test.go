package mapfile

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// headerBuilder assembles a minimal, valid map-file header byte-for-byte in
// the order spec.md §4.2/§6 describes, so tests can tweak one field at a
// time without hand-counting offsets.
type headerBuilder struct {
	version        int32
	bbox           [4]int32 // minLat, minLon, maxLat, maxLon, in microdegrees
	tilePixelSize  uint16
	projection     string
	flags          byte
	startZoom      byte
	lang           string
	comment        string
	createdBy      string
	poiTags        []string
	wayTags        []string
	subFiles       []subFileSpec
	fileSizeOffset int64 // override declared file size; 0 means "use actual"
}

type subFileSpec struct {
	baseZoom, zoomMin, zoomMax byte
	startAddress, size         int64
}

func newMinimalHeader() *headerBuilder {
	return &headerBuilder{
		version:       4,
		bbox:          [4]int32{-10_000_000, -10_000_000, 10_000_000, 10_000_000},
		tilePixelSize: 256,
		projection:    "M",
		flags:         0,
	}
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	buf.Write(tmp[:n])
}

func writeUTF8(buf *bytes.Buffer, s string) {
	putUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

// build renders the header to bytes, computing each sub-file's start
// address automatically when the spec didn't set one (0 sentinel means
// "place immediately after the header").
func (h *headerBuilder) build() []byte {
	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, h.version)
	binary.Write(&body, binary.BigEndian, int64(0)) // file size placeholder, patched below
	binary.Write(&body, binary.BigEndian, int64(1700000000000))
	for _, v := range h.bbox {
		binary.Write(&body, binary.BigEndian, v)
	}
	binary.Write(&body, binary.BigEndian, h.tilePixelSize)
	writeUTF8(&body, h.projection)
	body.WriteByte(h.flags)
	if h.flags&flagStartPosition != 0 {
		binary.Write(&body, binary.BigEndian, int32(0))
		binary.Write(&body, binary.BigEndian, int32(0))
	}
	if h.flags&flagStartZoomLevel != 0 {
		body.WriteByte(h.startZoom)
	}
	if h.flags&flagLanguagePreference != 0 {
		writeUTF8(&body, h.lang)
	}
	if h.flags&flagComment != 0 {
		writeUTF8(&body, h.comment)
	}
	if h.flags&flagCreatedBy != 0 {
		writeUTF8(&body, h.createdBy)
	}
	binary.Write(&body, binary.BigEndian, uint16(len(h.poiTags)))
	for _, t := range h.poiTags {
		writeUTF8(&body, t)
	}
	binary.Write(&body, binary.BigEndian, uint16(len(h.wayTags)))
	for _, t := range h.wayTags {
		writeUTF8(&body, t)
	}

	subFiles := h.subFiles
	if len(subFiles) == 0 {
		subFiles = []subFileSpec{{baseZoom: 0, zoomMin: 0, zoomMax: 0, size: 4}}
	}
	body.WriteByte(byte(len(subFiles)))

	// Each sub-file record is a fixed 19 bytes (1+1+1+8+8), so the total
	// header length is known before addresses are assigned: magic(10) +
	// headerLen field(4) + body-so-far + all sub-file records.
	const subFileRecordSize = 1 + 1 + 1 + 8 + 8
	headerTotalLen := int64(len(magic)) + 4 + int64(body.Len()) + int64(len(subFiles))*subFileRecordSize

	var subBuf bytes.Buffer
	nextAddr := headerTotalLen
	for i, sf := range subFiles {
		addr := sf.startAddress
		if addr == 0 {
			addr = nextAddr
			nextAddr += sf.size
		}
		subBuf.WriteByte(sf.baseZoom)
		subBuf.WriteByte(sf.zoomMin)
		subBuf.WriteByte(sf.zoomMax)
		binary.Write(&subBuf, binary.BigEndian, addr)
		binary.Write(&subBuf, binary.BigEndian, sf.size)
		subFiles[i].startAddress = addr
	}
	body.Write(subBuf.Bytes())

	var out bytes.Buffer
	out.WriteString(magic)
	binary.Write(&out, binary.BigEndian, int32(body.Len()))
	out.Write(body.Bytes())

	// Pad so every declared sub-file's [startAddress, startAddress+size)
	// fits inside the file.
	total := out.Len()
	for _, sf := range subFiles {
		if end := int(sf.startAddress + sf.size); end > total {
			total = end
		}
	}
	raw := out.Bytes()
	padded := make([]byte, total)
	copy(padded, raw)

	// Patch the declared file size field (immediately after version, at
	// offset len(magic)+4+4).
	sizeOff := len(magic) + 4 + 4
	size := h.fileSizeOffset
	if size == 0 {
		size = int64(len(padded))
	}
	binary.BigEndian.PutUint64(padded[sizeOff:sizeOff+8], uint64(size))

	return padded
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "map.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// Scenario 1: header happy path.
func TestOpen_HappyPath(t *testing.T) {
	data := newMinimalHeader().build()
	path := writeTempFile(t, data)

	mf, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, int32(4), mf.Info.FileVersion)
	assert.Equal(t, uint16(256), mf.Info.TilePixelSize)
	assert.Equal(t, uint8(0), mf.QueryZoomLevel(5).ZoomLevelMin)
	assert.Equal(t, uint8(0), mf.QueryZoomLevel(5).ZoomLevelMax)
}

// Scenario 2: invalid file size.
func TestOpen_InvalidFileSize(t *testing.T) {
	h := newMinimalHeader()
	data := h.build()
	// Corrupt the declared file size to a value that doesn't match actual size.
	sizeOff := len(magic) + 4 + 4
	binary.BigEndian.PutUint64(data[sizeOff:sizeOff+8], 999)
	path := writeTempFile(t, data)

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

// Scenario 3: start zoom out of range.
func TestOpen_StartZoomOutOfRange(t *testing.T) {
	h := newMinimalHeader()
	h.flags = flagStartZoomLevel
	h.startZoom = 23
	data := h.build()
	path := writeTempFile(t, data)

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestOpen_BadMagic(t *testing.T) {
	data := newMinimalHeader().build()
	copy(data, "WRONGMAGIC")
	path := writeTempFile(t, data)

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrNotAMapFile)
}

func TestOpen_UnsupportedVersion(t *testing.T) {
	h := newMinimalHeader()
	h.version = 99
	data := h.build()
	path := writeTempFile(t, data)

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestOpen_InvalidBoundingBox(t *testing.T) {
	h := newMinimalHeader()
	h.bbox = [4]int32{10_000_000, 0, -10_000_000, 0} // minLat > maxLat
	data := h.build()
	path := writeTempFile(t, data)

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestOpen_MultipleSubFilesZoomLookup(t *testing.T) {
	h := newMinimalHeader()
	h.subFiles = []subFileSpec{
		{baseZoom: 8, zoomMin: 0, zoomMax: 7, size: 100},
		{baseZoom: 14, zoomMin: 8, zoomMax: 17, size: 100},
	}
	data := h.build()
	path := writeTempFile(t, data)

	mf, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), mf.QueryZoomLevel(3).BaseZoomLevel)
	assert.Equal(t, uint8(14), mf.QueryZoomLevel(10).BaseZoomLevel)
	// getQueryZoomLevel clamps above the global max.
	assert.Equal(t, uint8(14), mf.QueryZoomLevel(99).BaseZoomLevel)
}

func TestOpen_DebugSignatureShiftsIndexStart(t *testing.T) {
	h := newMinimalHeader()
	h.flags = flagDebug
	data := h.build()
	path := writeTempFile(t, data)

	mf, err := Open(path)
	require.NoError(t, err)
	sf := mf.SubFiles[0]
	assert.Equal(t, sf.StartAddress+debugSignatureSize, sf.IndexStartAddress)
}

func TestOpen_AllOptionalFields(t *testing.T) {
	h := newMinimalHeader()
	h.flags = flagStartPosition | flagStartZoomLevel | flagLanguagePreference | flagComment | flagCreatedBy
	h.startZoom = 10
	h.lang = "en"
	h.comment = "test comment"
	h.createdBy = "test-writer"
	h.poiTags = []string{"amenity=cafe", "shop=bakery"}
	h.wayTags = []string{"highway=primary"}
	data := h.build()
	path := writeTempFile(t, data)

	mf, err := Open(path)
	require.NoError(t, err)
	assert.True(t, mf.Info.HasStartPosition)
	assert.Equal(t, uint8(10), mf.Info.StartZoomLevel)
	assert.Equal(t, "en", mf.Info.LanguagePreference)
	assert.Equal(t, "test comment", mf.Info.Comment)
	assert.Equal(t, "test-writer", mf.Info.CreatedBy)
	assert.Equal(t, []string{"amenity=cafe", "shop=bakery"}, mf.Info.PoiTags)
	assert.Equal(t, []string{"highway=primary"}, mf.Info.WayTags)
}

func TestOpen_BadLanguageLength(t *testing.T) {
	h := newMinimalHeader()
	h.flags = flagLanguagePreference
	h.lang = "eng"
	data := h.build()
	path := writeTempFile(t, data)

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestRegistry_SequentialOpensParseSameFile(t *testing.T) {
	data := newMinimalHeader().build()
	path := writeTempFile(t, data)

	reg := NewRegistry()
	mf1, err := reg.Open(path)
	require.NoError(t, err)
	mf2, err := reg.Open(path)
	require.NoError(t, err)
	assert.Equal(t, mf1.Info.FileVersion, mf2.Info.FileVersion)
}
