package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/zurustar/bsscript/pkg/typetree"
)

// Magic identifies a bundle file.
const Magic = "BSB1"

// Ext is the file extension of a bundle.
const Ext = ".bundle"

var (
	ErrBadMagic  = errors.New("not a bundle file")
	ErrCorrupted = errors.New("corrupted bundle")
)

// bundleFile is the CBOR payload of a bundle.
type bundleFile struct {
	Name    string                    `cbor:"1,keyasint"`
	Entries map[int64]*typetree.Field `cbor:"2,keyasint"`
}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("container: cbor enc mode: %v", err))
	}
	cborEncMode = em

	// スクリプトのツリーは深くなるので入れ子の上限を広げる。
	// 文字列は \xHH エスケープで任意のバイト列になり得るので、
	// エンコーダが書いたものはそのまま読み戻す。
	dm, err := cbor.DecOptions{
		MaxNestedLevels: 256,
		UTF8:            cbor.UTF8DecodeInvalid,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("container: cbor dec mode: %v", err))
	}
	cborDecMode = dm
}

// WriteBundle serializes a collection to w. Identical content always
// produces identical bytes.
func WriteBundle(w io.Writer, name string, entries map[int64]*typetree.Field) error {
	if entries == nil {
		entries = map[int64]*typetree.Field{}
	}
	payload, err := cborEncMode.Marshal(bundleFile{Name: name, Entries: entries})
	if err != nil {
		return fmt.Errorf("encode bundle %s: %w", name, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()

	buf := make([]byte, 0, len(Magic)+len(payload)/2)
	buf = append(buf, Magic...)
	buf = enc.EncodeAll(payload, buf)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write bundle %s: %w", name, err)
	}
	return nil
}

// ReadBundle parses a collection written by WriteBundle.
func ReadBundle(r io.Reader) (string, map[int64]*typetree.Field, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return "", nil, ErrBadMagic
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return "", nil, err
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(data[len(Magic):], nil)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	var b bundleFile
	if err := cborDecMode.Unmarshal(payload, &b); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if b.Entries == nil {
		b.Entries = map[int64]*typetree.Field{}
	}
	return b.Name, b.Entries, nil
}
