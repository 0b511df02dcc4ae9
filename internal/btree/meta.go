package btree

import (
	"fmt"

	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/storage"
)

// writeMeta serializes (page_id_of_root, key_size, schema_bytes) into
// buf at offset 0, per spec.md §6 "Index root page".
func writeMeta(buf []byte, rootPageID storage.PageID, keySize int, schema *record.Schema) error {
	schemaBytes := schema.Encode()
	need := 4 + 4 + len(schemaBytes)
	if need > len(buf) {
		return fmt.Errorf("btree: meta page: schema too large (%d bytes)", need)
	}
	for i := range buf {
		buf[i] = 0
	}
	le.PutUint32(buf[0:4], rootPageID)
	le.PutUint32(buf[4:8], uint32(keySize))
	copy(buf[8:8+len(schemaBytes)], schemaBytes)
	return nil
}

func readMetaRootPageID(buf []byte) storage.PageID { return le.Uint32(buf[0:4]) }
func readMetaKeySize(buf []byte) int                { return int(le.Uint32(buf[4:8])) }

func readMetaSchema(buf []byte) (*record.Schema, error) {
	return record.DecodeSchema(buf[8:])
}

func writeMetaRootPageID(buf []byte, rootPageID storage.PageID) {
	le.PutUint32(buf[0:4], rootPageID)
}
