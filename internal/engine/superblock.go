package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tuannm99/novadb/internal/storage"
)

// superblock lives on page 0 of every data file: a 16-byte instance
// UUID (spec.md §13's "instance tag", grounded on the DOMAIN STACK's use
// of google/uuid) followed by the page id of the database's table
// catalog page (spec.md §4.8's directory page, sized and laid out by
// package catalog).
const superblockLen = 16 + 4

func writeSuperblock(buf []byte, instanceID uuid.UUID, tableCatalogPageID storage.PageID) error {
	if len(buf) < superblockLen {
		return fmt.Errorf("engine: superblock: page too small")
	}
	copy(buf[0:16], instanceID[:])
	storage.PutU32(buf, 16, uint32(tableCatalogPageID))
	return nil
}

func readSuperblock(buf []byte) (uuid.UUID, storage.PageID, error) {
	if len(buf) < superblockLen {
		return uuid.UUID{}, 0, fmt.Errorf("engine: superblock: page too small")
	}
	id, err := uuid.FromBytes(buf[0:16])
	if err != nil {
		return uuid.UUID{}, 0, fmt.Errorf("engine: superblock: %w", err)
	}
	return id, storage.PageID(storage.GetU32(buf, 16)), nil
}
