package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"

	"pngopt/pkg/imgutil"
)

const maxChunkLength = 1<<31 - 1

var (
	nameIHDR = NameOf("IHDR")
	namePLTE = NameOf("PLTE")
	nameTRNS = NameOf("tRNS")
	nameIDAT = NameOf("IDAT")
	nameIEND = NameOf("IEND")
	nameICCP = NameOf("iCCP")
	nameACTL = NameOf("acTL")
	nameFCTL = NameOf("fcTL")
	nameFDAT = NameOf("fdAT")
)

type header struct {
	width     uint32
	height    uint32
	depth     BitDepth
	color     ColorKind
	interlace Interlacing
}

type pngFile struct {
	header  header
	palette []byte
	trns    []byte
	idat    []byte
	chunks  []Chunk
}

// readPNG walks the chunk stream. CRC mismatches are tolerated when fixErrors is set.
func readPNG(data []byte, fixErrors bool) (*pngFile, error) {
	if kind, err := imgutil.DetectHeader(data); err != nil || kind != imgutil.KindPNG {
		return nil, errKind(KindNotPNG)
	}

	r := bytes.NewReader(data[len(imgutil.PNGSignature):])
	f := &pngFile{}
	seenHeader := false

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			if err == io.EOF && seenHeader {
				break
			}
			return nil, readErr(err)
		}
		length := binary.BigEndian.Uint32(lenBuf)
		if length > maxChunkLength {
			return nil, errKind(KindInvalidData)
		}

		var name ChunkName
		if _, err := io.ReadFull(r, name[:]); err != nil {
			return nil, readErr(err)
		}
		if int64(length) > int64(r.Len()) {
			return nil, errKind(KindTruncatedData)
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, readErr(err)
		}
		crcBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, crcBuf); err != nil {
			return nil, readErr(err)
		}
		if !fixErrors && binary.BigEndian.Uint32(crcBuf) != chunkCRC(name, body) {
			return nil, errKind(KindInvalidData)
		}

		if !seenHeader && name != nameIHDR {
			return nil, errChunkMissing("IHDR")
		}

		switch name {
		case nameIHDR:
			h, err := parseHeader(body)
			if err != nil {
				return nil, err
			}
			f.header = h
			seenHeader = true
		case namePLTE:
			if len(body) == 0 || len(body)%3 != 0 || len(body) > 3*256 {
				return nil, errKind(KindInvalidData)
			}
			f.palette = body
		case nameTRNS:
			f.trns = body
		case nameIDAT:
			f.idat = append(f.idat, body...)
		case nameACTL, nameFCTL, nameFDAT:
			return nil, errKind(KindAPNGNotSupported)
		case nameIEND:
		default:
			if name.Critical() {
				return nil, errKind(KindInvalidData)
			}
			f.chunks = append(f.chunks, Chunk{Name: name, Data: body})
		}

		if name == nameIEND {
			break
		}
	}

	if len(f.idat) == 0 {
		return nil, errChunkMissing("IDAT")
	}
	if f.header.color == ColorIndexed && f.palette == nil {
		return nil, errChunkMissing("PLTE")
	}
	return f, nil
}

func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errKind(KindTruncatedData)
	}
	return errOther("read chunk", err)
}

func parseHeader(body []byte) (header, error) {
	if len(body) != 13 {
		return header{}, errKind(KindInvalidData)
	}
	h := header{
		width:     binary.BigEndian.Uint32(body[0:4]),
		height:    binary.BigEndian.Uint32(body[4:8]),
		depth:     BitDepth(body[8]),
		color:     ColorKind(body[9]),
		interlace: Interlacing(body[12]),
	}
	if h.width == 0 || h.height == 0 || !validDepth(h.color, h.depth) {
		return header{}, errKind(KindInvalidData)
	}
	if body[10] != 0 || body[11] != 0 || h.interlace > InterlaceAdam7 {
		return header{}, errKind(KindInvalidData)
	}
	return h, nil
}

func (h header) bytes() []byte {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[0:4], h.width)
	binary.BigEndian.PutUint32(b[4:8], h.height)
	b[8] = byte(h.depth)
	b[9] = byte(h.color)
	b[12] = byte(h.interlace)
	return b
}

// criticalOnly rebuilds the file from its critical chunks with fresh CRCs.
func (f *pngFile) criticalOnly() []byte {
	var buf bytes.Buffer
	buf.Write(imgutil.PNGSignature)
	writeChunk(&buf, nameIHDR, f.header.bytes())
	if f.palette != nil {
		writeChunk(&buf, namePLTE, f.palette)
	}
	if f.trns != nil {
		writeChunk(&buf, nameTRNS, f.trns)
	}
	writeChunk(&buf, nameIDAT, f.idat)
	writeChunk(&buf, nameIEND, nil)
	return buf.Bytes()
}

func chunkCRC(name ChunkName, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(name[:])
	crc.Write(data)
	return crc.Sum32()
}

func writeChunk(buf *bytes.Buffer, name ChunkName, data []byte) {
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(data)))
	buf.Write(lenBuf)
	buf.Write(name[:])
	buf.Write(data)
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, chunkCRC(name, data))
	buf.Write(crcBuf)
}
