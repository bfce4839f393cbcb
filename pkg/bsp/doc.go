// Package bsp reads, edits and rewrites VBSP map containers.
//
// A VBSP file is a fixed header followed by a directory of 64 lumps and the
// lump bodies. Every lump is addressed by its type code; most bodies are
// treated as opaque bytes. Two bodies carry structure that has to be
// re-encoded whenever the file layout changes:
//
//   - the game lump (35) holds a table of items whose offsets are absolute
//     file positions, so moving the lump moves every item;
//   - the pakfile lump (40) holds a zip archive of embedded content.
//
// Parsing records the physical order of the lump bodies. Writing keeps that
// order, assigns fresh 4-byte aligned offsets to every non-empty lump and
// re-encodes the structured bodies against their new position.
//
//	c, err := bsp.Open("map.bsp")
//	if err != nil {
//		return err
//	}
//	lump, _ := c.Lump(bsp.LumpEntities)
//	lump.Clear()
//	return c.WriteFile("map.bsp")
package bsp
