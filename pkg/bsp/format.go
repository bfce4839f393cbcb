package bsp

import (
	"encoding/binary"
	"fmt"
)

// VBSP format constants must never change.
const (
	// MagicVBSP is "VBSP" read as a little-endian int32.
	MagicVBSP int32 = 0x50534256

	// LumpCount is the fixed number of directory slots.
	LumpCount = 64

	// lumpEntrySize covers offset, length, version and ident.
	lumpEntrySize = 16
	// headerSize covers magic, version, the directory and revision. Lump
	// bodies start here.
	headerSize = 4 + 4 + lumpEntrySize*LumpCount + 4

	// LMPHeaderSize is the size of the side-file header and the value of its first field.
	LMPHeaderSize = 20
)

// LumpType is the type code of a directory slot.
type LumpType int

const (
	LumpEntities                    LumpType = 0
	LumpPlanes                      LumpType = 1
	LumpTexData                     LumpType = 2
	LumpVertexes                    LumpType = 3
	LumpVisibility                  LumpType = 4
	LumpNodes                       LumpType = 5
	LumpTexInfo                     LumpType = 6
	LumpFaces                       LumpType = 7
	LumpLighting                    LumpType = 8
	LumpOcclusion                   LumpType = 9
	LumpLeafs                       LumpType = 10
	LumpFaceIDs                     LumpType = 11
	LumpEdges                       LumpType = 12
	LumpSurfEdges                   LumpType = 13
	LumpModels                      LumpType = 14
	LumpWorldLights                 LumpType = 15
	LumpLeafFaces                   LumpType = 16
	LumpLeafBrushes                 LumpType = 17
	LumpBrushes                     LumpType = 18
	LumpBrushSides                  LumpType = 19
	LumpAreas                       LumpType = 20
	LumpAreaPortals                 LumpType = 21
	LumpPortals                     LumpType = 22
	LumpClusters                    LumpType = 23
	LumpPortalVerts                 LumpType = 24
	LumpClusterPortals              LumpType = 25
	LumpDispInfo                    LumpType = 26
	LumpOriginalFaces               LumpType = 27
	LumpPhysDisp                    LumpType = 28
	LumpPhysCollide                 LumpType = 29
	LumpVertNormals                 LumpType = 30
	LumpVertNormalIndices           LumpType = 31
	LumpDispLightmapAlphas          LumpType = 32
	LumpDispVerts                   LumpType = 33
	LumpDispLightmapSamplePositions LumpType = 34
	LumpGame                        LumpType = 35
	LumpLeafWaterData               LumpType = 36
	LumpPrimitives                  LumpType = 37
	LumpPrimVerts                   LumpType = 38
	LumpPrimIndices                 LumpType = 39
	LumpPakfile                     LumpType = 40
	LumpClipPortalVerts             LumpType = 41
	LumpCubemaps                    LumpType = 42
	LumpTexDataStringData           LumpType = 43
	LumpTexDataStringTable          LumpType = 44
	LumpOverlays                    LumpType = 45
	LumpLeafMinDistToWater          LumpType = 46
	LumpFaceMacroTextureInfo        LumpType = 47
	LumpDispTris                    LumpType = 48
	LumpPhysCollideSurface          LumpType = 49
	LumpWaterOverlays               LumpType = 50
	LumpLeafAmbientIndexHDR         LumpType = 51
	LumpLeafAmbientIndex            LumpType = 52
	LumpLightingHDR                 LumpType = 53
	LumpWorldLightsHDR              LumpType = 54
	LumpLeafAmbientLightingHDR      LumpType = 55
	LumpLeafAmbientLighting         LumpType = 56
	LumpXZipPakfile                 LumpType = 57
	LumpFacesHDR                    LumpType = 58
	LumpMapFlags                    LumpType = 59
	LumpOverlayFades                LumpType = 60
	LumpOverlaySystemLevels         LumpType = 61
	LumpPhysLevel                   LumpType = 62
	LumpDispMultiblend              LumpType = 63
)

var lumpNames = [LumpCount]string{
	"ENTITIES", "PLANES", "TEXDATA", "VERTEXES", "VISIBILITY", "NODES", "TEXINFO", "FACES",
	"LIGHTING", "OCCLUSION", "LEAFS", "FACEIDS", "EDGES", "SURFEDGES", "MODELS", "WORLDLIGHTS",
	"LEAFFACES", "LEAFBRUSHES", "BRUSHES", "BRUSHSIDES", "AREAS", "AREAPORTALS", "PORTALS", "CLUSTERS",
	"PORTALVERTS", "CLUSTERPORTALS", "DISPINFO", "ORIGINALFACES", "PHYSDISP", "PHYSCOLLIDE", "VERTNORMALS", "VERTNORMALINDICES",
	"DISP_LIGHTMAP_ALPHAS", "DISP_VERTS", "DISP_LIGHTMAP_SAMPLE_POSITIONS", "GAME_LUMP", "LEAFWATERDATA", "PRIMITIVES", "PRIMVERTS", "PRIMINDICES",
	"PAKFILE", "CLIPPORTALVERTS", "CUBEMAPS", "TEXDATA_STRING_DATA", "TEXDATA_STRING_TABLE", "OVERLAYS", "LEAFMINDISTTOWATER", "FACE_MACRO_TEXTURE_INFO",
	"DISP_TRIS", "PHYSCOLLIDESURFACE", "WATEROVERLAYS", "LEAF_AMBIENT_INDEX_HDR", "LEAF_AMBIENT_INDEX", "LIGHTING_HDR", "WORLDLIGHTS_HDR", "LEAF_AMBIENT_LIGHTING_HDR",
	"LEAF_AMBIENT_LIGHTING", "XZIPPAKFILE", "FACES_HDR", "MAP_FLAGS", "OVERLAY_FADES", "OVERLAY_SYSTEM_LEVELS", "PHYSLEVEL", "DISP_MULTIBLEND",
}

// Valid reports whether t addresses one of the 64 directory slots.
func (t LumpType) Valid() bool {
	return t >= 0 && t < LumpCount
}

func (t LumpType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("LumpType(%d)", int(t))
	}
	return lumpNames[t]
}

// ParseLumpType validates a numeric lump index supplied by a caller.
func ParseLumpType(index int) (LumpType, error) {
	t := LumpType(index)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %d (want 0-%d)", ErrLumpIndex, index, LumpCount-1)
	}
	return t, nil
}

// dirEntry is one 16-byte lump directory record.
type dirEntry struct {
	Offset  int32
	Length  int32
	Version int32
	Ident   int32
}

func encodeEntry(dst []byte, e dirEntry) bool {
	if len(dst) < lumpEntrySize {
		return false
	}
	binary.LittleEndian.PutUint32(dst[0:], uint32(e.Offset))
	binary.LittleEndian.PutUint32(dst[4:], uint32(e.Length))
	binary.LittleEndian.PutUint32(dst[8:], uint32(e.Version))
	binary.LittleEndian.PutUint32(dst[12:], uint32(e.Ident))
	return true
}

func decodeEntry(src []byte) (dirEntry, bool) {
	if len(src) < lumpEntrySize {
		return dirEntry{}, false
	}
	return dirEntry{
		Offset:  int32(binary.LittleEndian.Uint32(src[0:])),
		Length:  int32(binary.LittleEndian.Uint32(src[4:])),
		Version: int32(binary.LittleEndian.Uint32(src[8:])),
		Ident:   int32(binary.LittleEndian.Uint32(src[12:])),
	}, true
}

func putInt32(dst []byte, v int32) {
	binary.LittleEndian.PutUint32(dst, uint32(v))
}

func getInt32(src []byte) int32 {
	return int32(binary.LittleEndian.Uint32(src))
}
