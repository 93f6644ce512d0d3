package record

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"ssw-corelog/level"
)

// headerSize is the fixed on-wire size of Header, in bytes:
// level(4) + ts(8) + hasKTID(1) + ktid(4) + rank(2) + line(4) +
// filenameLen(2) + funcnameLen(2) + loggerNameLen(2) + messageLen(4).
const headerSize = 4 + 8 + 1 + 4 + 2 + 4 + 2 + 2 + 2 + 4

// Encode builds a single-allocation Frame from a header and its four
// variable-length tail strings, per spec.md §4.2. The codec does not
// copy the tail a second time: the strings are written once, directly
// into the frame's backing array.
func Encode(lvl level.Level, timestampNS int64, ktid uint32, hasKTID bool, rank uint16, file string, line int, fn string, loggerName string, message string) (*Frame, error) {
	if !lvl.Valid() {
		return nil, fmt.Errorf("record: invalid level %v", lvl)
	}
	if len(file) > 0xFFFF || len(fn) > 0xFFFF || len(loggerName) > 0xFFFF {
		return nil, fmt.Errorf("record: variable field too long")
	}
	if len(message) > 0xFFFFFFFF {
		return nil, fmt.Errorf("record: message too long")
	}

	tailLen := len(file) + len(fn) + len(loggerName) + len(message)
	buf := make([]byte, headerSize+tailLen)

	putHeader(buf, Header{
		Level:         lvl,
		TimestampNS:   timestampNS,
		HasKTID:       hasKTID,
		KTID:          ktid,
		Rank:          rank,
		Line:          int32(line),
		FilenameLen:   uint16(len(file)),
		FuncnameLen:   uint16(len(fn)),
		LoggerNameLen: uint16(len(loggerName)),
		MessageLen:    uint32(len(message)),
	})

	off := headerSize
	off += copy(buf[off:], file)
	off += copy(buf[off:], fn)
	off += copy(buf[off:], loggerName)
	copy(buf[off:], message)

	return &Frame{buf: buf}, nil
}

func putHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Level))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(h.TimestampNS))
	if h.HasKTID {
		buf[12] = 1
	} else {
		buf[12] = 0
	}
	binary.LittleEndian.PutUint32(buf[13:17], h.KTID)
	binary.LittleEndian.PutUint16(buf[17:19], h.Rank)
	binary.LittleEndian.PutUint32(buf[19:23], uint32(h.Line))
	binary.LittleEndian.PutUint16(buf[23:25], h.FilenameLen)
	binary.LittleEndian.PutUint16(buf[25:27], h.FuncnameLen)
	binary.LittleEndian.PutUint16(buf[27:29], h.LoggerNameLen)
	binary.LittleEndian.PutUint32(buf[29:33], h.MessageLen)
}

func getHeader(buf []byte) Header {
	return Header{
		Level:         level.Level(binary.LittleEndian.Uint32(buf[0:4])),
		TimestampNS:   int64(binary.LittleEndian.Uint64(buf[4:12])),
		HasKTID:       buf[12] != 0,
		KTID:          binary.LittleEndian.Uint32(buf[13:17]),
		Rank:          binary.LittleEndian.Uint16(buf[17:19]),
		Line:          int32(binary.LittleEndian.Uint32(buf[19:23])),
		FilenameLen:   binary.LittleEndian.Uint16(buf[23:25]),
		FuncnameLen:   binary.LittleEndian.Uint16(buf[25:27]),
		LoggerNameLen: binary.LittleEndian.Uint16(buf[27:29]),
		MessageLen:    binary.LittleEndian.Uint32(buf[29:33]),
	}
}

// Decode zero-copy slices a Frame's tail given its header. The returned
// strings alias f's backing array; callers must not mutate it after
// Decode (the frame is owned by whoever dequeued it, per spec.md §3).
func Decode(f *Frame) (h Header, file, fn, loggerName, message string, err error) {
	if len(f.buf) < headerSize {
		return Header{}, "", "", "", "", fmt.Errorf("record: frame shorter than header")
	}
	h = getHeader(f.buf)
	want := headerSize + int(h.FilenameLen) + int(h.FuncnameLen) + int(h.LoggerNameLen) + int(h.MessageLen)
	if len(f.buf) != want {
		return Header{}, "", "", "", "", fmt.Errorf("record: frame length %d does not match header (want %d)", len(f.buf), want)
	}

	off := headerSize
	file = bytesToString(f.buf[off : off+int(h.FilenameLen)])
	off += int(h.FilenameLen)
	fn = bytesToString(f.buf[off : off+int(h.FuncnameLen)])
	off += int(h.FuncnameLen)
	loggerName = bytesToString(f.buf[off : off+int(h.LoggerNameLen)])
	off += int(h.LoggerNameLen)
	message = bytesToString(f.buf[off : off+int(h.MessageLen)])

	return h, file, fn, loggerName, message, nil
}

func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
